package pptx

import (
	"bytes"
	"fmt"
	"time"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const (
	nsA = `http://schemas.openxmlformats.org/drawingml/2006/main`
	nsR = `http://schemas.openxmlformats.org/officeDocument/2006/relationships`
	nsP = `http://schemas.openxmlformats.org/presentationml/2006/main`

	relBase  = `http://schemas.openxmlformats.org/officeDocument/2006/relationships/`
	typeBase = `application/vnd.openxmlformats-officedocument.`
)

const nsDecl = `xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"`

const groupShapeProps = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

const rootRels = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relBase + `officeDocument" Target="ppt/presentation.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="` + relBase + `extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const slideMaster = `<p:sldMaster ` + nsDecl + `><p:cSld><p:spTree>` + groupShapeProps + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" ` +
	`accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

const slideMasterRels = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relBase + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relBase + `theme" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

const slideLayout = `<p:sldLayout ` + nsDecl + ` type="blank" preserve="1"><p:cSld name="Blank"><p:spTree>` +
	groupShapeProps + `</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const slideLayoutRels = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relBase + `slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

const slideRels = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relBase + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`</Relationships>`

const theme = `<a:theme xmlns:a="` + nsA + `" name="Office Theme"><a:themeElements>` +
	`<a:clrScheme name="Office">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="44546A"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="4472C4"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Office">` +
	`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="Office">` +
	`<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>` +
	`<a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>` +
	`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
	`<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>` +
	`</a:fmtScheme></a:themeElements></a:theme>`

func contentTypes(slides int) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	buf.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	buf.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	override := func(name, ct string) {
		fmt.Fprintf(&buf, `<Override PartName="%s" ContentType="%s"/>`, name, ct)
	}
	override("/ppt/presentation.xml", typeBase+"presentationml.presentation.main+xml")
	override("/ppt/slideMasters/slideMaster1.xml", typeBase+"presentationml.slideMaster+xml")
	override("/ppt/slideLayouts/slideLayout1.xml", typeBase+"presentationml.slideLayout+xml")
	override("/ppt/theme/theme1.xml", typeBase+"theme+xml")
	for i := 1; i <= slides; i++ {
		override(fmt.Sprintf("/ppt/slides/slide%d.xml", i), typeBase+"presentationml.slide+xml")
	}
	override("/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml")
	override("/docProps/app.xml", typeBase+"extended-properties+xml")
	buf.WriteString(`</Types>`)
	return buf.Bytes()
}

func presentationXML(slides int, cx, cy int64) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(`<p:presentation ` + nsDecl + ` saveSubsetFonts="1">`)
	buf.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	if slides > 0 {
		buf.WriteString(`<p:sldIdLst>`)
		for i := 0; i < slides; i++ {
			fmt.Fprintf(&buf, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+3)
		}
		buf.WriteString(`</p:sldIdLst>`)
	}
	fmt.Fprintf(&buf, `<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="%d" cy="%d"/>`, cx, cy, cy, cx)
	buf.WriteString(`</p:presentation>`)
	return buf.Bytes()
}

func presentationRels(slides int) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	buf.WriteString(`<Relationship Id="rId1" Type="` + relBase + `slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	buf.WriteString(`<Relationship Id="rId2" Type="` + relBase + `theme" Target="theme/theme1.xml"/>`)
	for i := 0; i < slides; i++ {
		fmt.Fprintf(&buf, `<Relationship Id="rId%d" Type="%sslide" Target="slides/slide%d.xml"/>`, i+3, relBase, i+1)
	}
	buf.WriteString(`</Relationships>`)
	return buf.Bytes()
}

func appProps(slides int) []byte {
	return []byte(fmt.Sprintf(xmlHeader+
		`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">`+
		`<Application>tokendeck</Application><Slides>%d</Slides></Properties>`, slides))
}

func coreProps(title string, created time.Time) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	if title != "" {
		fmt.Fprintf(&buf, `<dc:title>%s</dc:title>`, escape(title))
	}
	buf.WriteString(`<dc:creator>tokendeck</dc:creator>`)
	if !created.IsZero() {
		ts := created.UTC().Format(time.RFC3339)
		fmt.Fprintf(&buf, `<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`, ts)
		fmt.Fprintf(&buf, `<dcterms:modified xsi:type="dcterms:W3CDTF">%s</dcterms:modified>`, ts)
	}
	buf.WriteString(`</cp:coreProperties>`)
	return buf.Bytes()
}
