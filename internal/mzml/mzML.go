// Package mzml reads and writes the spectra of mzML files.
// Only the parts that are needed for calibration and quantitation are
// decoded; everything else is kept as raw XML so that a file can be
// written back with updated spectra.
package mzml

import (
	"encoding/xml"
	"errors"
)

// MzML wraps the contents of the mzML file
type MzML struct {
	content  mzMLContent
	index2id []string
}

// Peak contains the actual ms peak info
type Peak struct {
	Mz     float64
	Intens float64
}

// The mzML content that we read. Not all fields are parsed,
// but we need to store them in order to write the result mzML.
type mzMLContent struct {
	XMLName         xml.Name `xml:"http://psi.hupo.org/ms/mzml mzML"`
	CvList          cvList   `xml:"cvList"`
	FileDescription struct {
		FileDescriptionXML string `xml:",innerxml"`
	} `xml:"fileDescription"`
	ReferenceableParamGroupList *rawList            `xml:"referenceableParamGroupList"`
	SoftwareList                *softwareList       `xml:"softwareList"`
	InstrumentConfigurationList *rawList            `xml:"instrumentConfigurationList"`
	DataProcessingList          *dataProcessingList `xml:"dataProcessingList"`
	Run                         run                 `xml:"run"`
}

// Separate struct for writing, the namespace attributes can't be
// written otherwise
type mzMLContentWrite struct {
	XMLName         xml.Name `xml:"http://psi.hupo.org/ms/mzml mzML"`
	Sl1             string   `xml:"xsi:schemaLocation,attr"`
	Version         string   `xml:"version,attr"`
	Sl2             string   `xml:"xmlns:xsi,attr"`
	CvList          cvList   `xml:"cvList"`
	FileDescription struct {
		FileDescriptionXML string `xml:",innerxml"`
	} `xml:"fileDescription"`
	ReferenceableParamGroupList *rawList            `xml:"referenceableParamGroupList,omitempty"`
	SoftwareList                *softwareList       `xml:"softwareList"`
	InstrumentConfigurationList *rawList            `xml:"instrumentConfigurationList"`
	DataProcessingList          *dataProcessingList `xml:"dataProcessingList"`
	Run                         run                 `xml:"run"`
}

type cvList struct {
	Count     int    `xml:"count,attr,omitempty"`
	CvListXML []byte `xml:",innerxml"`
}

// rawList is a list tag of which only the count is interpreted
type rawList struct {
	Count int    `xml:"count,attr,omitempty"`
	XML   []byte `xml:",innerxml"`
}

type softwareList struct {
	Count    int        `xml:"count,attr,omitempty"`
	Software []software `xml:"software"`
}

type software struct {
	ID      string    `xml:"id,attr,omitempty"`
	Version string    `xml:"version,attr,omitempty"`
	CvPar   []CVParam `xml:"cvParam,omitempty"`
}

type dataProcessingList struct {
	Count          int              `xml:"count,attr,omitempty"`
	DataProcessing []DataProcessing `xml:"dataProcessing,omitempty"`
}

// DataProcessing contains info for the correspondingly named
// tag in mzML
type DataProcessing struct {
	ID             string             `xml:"id,attr,omitempty"`
	ProcessingMeth []ProcessingMethod `xml:"processingMethod"`
}

// ProcessingMethod contains info for the correspondingly named
// tag in mzML
type ProcessingMethod struct {
	Order       int         `xml:"order,attr"`
	SoftwareRef string      `xml:"softwareRef,attr,omitempty"`
	CvPar       []CVParam   `xml:"cvParam,omitempty"`
	UserPar     []userParam `xml:"userParam,omitempty"`
}

type run struct {
	ID                                string       `xml:"id,attr,omitempty"`
	DefaultInstrumentConfigurationRef string       `xml:"defaultInstrumentConfigurationRef,attr,omitempty"`
	StartTimeStamp                    string       `xml:"startTimeStamp,attr,omitempty"`
	DefaultSourceFileRef              string       `xml:"defaultSourceFileRef,attr,omitempty"`
	SpectrumList                      spectrumList `xml:"spectrumList,omitempty"`
	ChromatogramList                  *rawList     `xml:"chromatogramList,omitempty"`
}

type spectrumList struct {
	Count                    int        `xml:"count,attr,omitempty"`
	DefaultDataProcessingRef string     `xml:"defaultDataProcessingRef,attr,omitempty"`
	Spectrum                 []spectrum `xml:"spectrum,omitempty"`
}

type spectrum struct {
	Index              int       `xml:"index,attr"`
	ID                 string    `xml:"id,attr"`
	DefaultArrayLength int64     `xml:"defaultArrayLength,attr"`
	CvPar              []CVParam `xml:"cvParam,omitempty"`
	ScanList           *rawList  `xml:"scanList,omitempty"`
	// A slice, encoding/xml doesn't handle "omitempty" on structures
	// and MS1 spectra must not get a precursorList tag
	PrecursorList       []rawList           `xml:"precursorList,omitempty"`
	BinaryDataArrayList binaryDataArrayList `xml:"binaryDataArrayList"`
}

type binaryDataArrayList struct {
	Count           int               `xml:"count,attr,omitempty"`
	BinaryDataArray []binaryDataArray `xml:"binaryDataArray"`
}

type binaryDataArray struct {
	EncodedLength int       `xml:"encodedLength,attr,omitempty"`
	ArrayLength   int       `xml:"arrayLength,attr,omitempty"`
	CvPar         []CVParam `xml:"cvParam,omitempty"`
	Binary        string    `xml:"binary"`
}

type userParam struct {
	Name  string `xml:"name,attr,omitempty"`
	Value string `xml:"value,attr,omitempty"`
	Type  string `xml:"type,attr,omitempty"`
}

// CVParam contains values and attributes of a mzML Controlled Vocabulary term
// (http://www.peptideatlas.org/tmp/mzML1.1.0.html)
type CVParam struct {
	CvRef         string `xml:"cvRef,attr,omitempty"`
	Accession     string `xml:"accession,attr,omitempty"`
	Name          string `xml:"name,attr,omitempty"`
	Value         string `xml:"value,attr,omitempty"`
	UnitCvRef     string `xml:"unitCvRef,attr,omitempty"`
	UnitAccession string `xml:"unitAccession,attr,omitempty"`
	UnitName      string `xml:"unitName,attr,omitempty"`
}

var (
	// ErrInvalidScanIndex means an invalid scan index is supplied
	ErrInvalidScanIndex = errors.New("MzML: invalid scan index")
	// ErrUnsupportedCompression means the binary data uses a compression
	// that can't be decoded (MS-Numpress)
	ErrUnsupportedCompression = errors.New("MzML: compression type not supported")
	// ErrNoScan means the file has no scan of the requested MS level
	ErrNoScan = errors.New("MzML: no scan of requested MS level")
)
