package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	"golang.org/x/net/html/charset"
)

// CV terms for the mass analyzer types that have a matching
// calibration function
const (
	CvFTICR    = `MS:1000079`
	CvTOF      = `MS:1000084`
	CvOrbitrap = `MS:1000484`
)

// Read reads mzML file from an io.Reader
func Read(reader io.Reader) (MzML, error) {
	var mzML MzML

	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	// We are only interested in mzML content, so skip over indexedmzML
	// and everything else
	for {
		t, tokenErr := d.Token()
		if tokenErr != nil {
			if tokenErr == io.EOF {
				break
			}
			return mzML, tokenErr
		}
		if se, ok := t.(xml.StartElement); ok && se.Name.Local == "mzML" {
			if err := d.DecodeElement(&mzML.content, &se); err != nil {
				return mzML, err
			}
		}
	}

	err := mzML.traverseScan()
	return mzML, err
}

// arrayFormat holds the encoding of a binary data array
type arrayFormat struct {
	zlib      bool
	bits64    bool
	mz        bool
	intensity bool
}

// binaryDataPars decodes the CV terms in a mzML binarydata section
//
// CV Terms for binary data compression
// MS:1000574 zlib compression
// MS:1000576 No Compression
// MS:1002312 MS-Numpress linear prediction compression
// MS:1002313 MS-Numpress positive integer compression
// MS:1002314 MS-Numpress short logged float compression
// MS:1002746 MS-Numpress linear prediction compression followed by zlib compression
// MS:1002747 MS-Numpress positive integer compression followed by zlib compression
// MS:1002748 MS-Numpress short logged float compression followed by zlib compression
//
// CV Terms for binary data array types
// MS:1000514 m/z array
// MS:1000515 intensity array
//
// CV Terms for binary-data-type
// MS:1000521 32-bit float
// MS:1000523 64-bit float
func binaryDataPars(b *binaryDataArray) (arrayFormat, error) {
	var af arrayFormat // default: no compression, 32 bits
	for _, cvParam := range b.CvPar {
		switch cvParam.Accession {
		case `MS:1000574`:
			af.zlib = true
		case `MS:1000514`:
			af.mz = true
		case `MS:1000515`:
			af.intensity = true
		case `MS:1000523`:
			af.bits64 = true
		case `MS:1002312`, `MS:1002313`, `MS:1002314`,
			`MS:1002746`, `MS:1002747`, `MS:1002748`:
			return af, fmt.Errorf("%w (CV term %s)", ErrUnsupportedCompression, cvParam.Accession)
		}
	}
	return af, nil
}

func fillScan(p []Peak, b *binaryDataArray) error {
	af, err := binaryDataPars(b)
	if err != nil {
		return err
	}
	// We are only interested in mz and intensity
	if !af.mz && !af.intensity {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(b.Binary)
	if err != nil {
		return err
	}
	if af.zlib {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return err
		}
		defer z.Close()
		data, err = io.ReadAll(z)
		if err != nil {
			return err
		}
	}
	size := 4
	if af.bits64 {
		size = 8
	}
	cnt := len(data) / size
	if cnt > len(p) {
		return fmt.Errorf("binary array has %d values, expected %d", cnt, len(p))
	}
	for i := 0; i < cnt; i++ {
		var v float64
		if af.bits64 {
			v = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		} else {
			v = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
		if af.mz {
			p[i].Mz = v
		} else {
			p[i].Intens = v
		}
	}
	return nil
}

// NumSpecs returns the number of spectra
func (f *MzML) NumSpecs() int {
	return len(f.content.Run.SpectrumList.Spectrum)
}

// ReadScan reads a single scan
// scanIndex is the sequence number of the scan in the mzML file,
// this is not the same as the scan number that is specified
// in the mzML file, see ScanID
func (f *MzML) ReadScan(scanIndex int) ([]Peak, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return nil, ErrInvalidScanIndex
	}
	spec := &f.content.Run.SpectrumList.Spectrum[scanIndex]
	p := make([]Peak, spec.DefaultArrayLength)
	for i := range spec.BinaryDataArrayList.BinaryDataArray {
		if err := fillScan(p, &spec.BinaryDataArrayList.BinaryDataArray[i]); err != nil {
			return nil, fmt.Errorf("scan %s: %w", spec.ID, err)
		}
	}
	return p, nil
}

// Centroid returns true is the spectrum contains centroid peaks
func (f *MzML) Centroid(scanIndex int) (bool, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return false, ErrInvalidScanIndex
	}
	for _, cvParam := range f.content.Run.SpectrumList.Spectrum[scanIndex].CvPar {
		if cvParam.Accession == "MS:1000127" { // centroid spectrum
			return true, nil
		}
	}
	return false, nil
}

// TotalIonCurrent returns the total ion current, or NaN if not found
func (f *MzML) TotalIonCurrent(scanIndex int) (float64, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0.0, ErrInvalidScanIndex
	}
	for _, cvParam := range f.content.Run.SpectrumList.Spectrum[scanIndex].CvPar {
		if cvParam.Accession == "MS:1000285" { // total ion current
			return strconv.ParseFloat(cvParam.Value, 64)
		}
	}
	return math.NaN(), nil
}

// MSLevel returns the MS level of a scan
func (f *MzML) MSLevel(scanIndex int) (int, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0, ErrInvalidScanIndex
	}
	for _, cvParam := range f.content.Run.SpectrumList.Spectrum[scanIndex].CvPar {
		if cvParam.Accession == "MS:1000511" { // ms level
			msLevel, err := strconv.ParseInt(cvParam.Value, 10, 64)
			return int(msLevel), err
		}
	}
	return 1, nil // If nothing else, guess it's MS1
}

// FirstScan returns the index of the first scan with the given MS level
func (f *MzML) FirstScan(msLevel int) (int, error) {
	for i := 0; i < f.NumSpecs(); i++ {
		l, err := f.MSLevel(i)
		if err != nil {
			return 0, err
		}
		if l == msLevel {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w (MS%d)", ErrNoScan, msLevel)
}

// MSInstruments returns the CV terms of the mass analyzers
func (f *MzML) MSInstruments() ([]string, error) {
	type analyzer struct {
		CvPar []CVParam `xml:"cvParam"`
	}
	type instrumentConfiguration struct {
		XMLName  xml.Name   `xml:"instrumentConfiguration"`
		Analyzer []analyzer `xml:"componentList>analyzer"`
	}
	if f.content.InstrumentConfigurationList == nil {
		return nil, nil
	}

	// The list may hold several configurations, decode them one by one
	var instr []string
	d := xml.NewDecoder(bytes.NewReader(f.content.InstrumentConfigurationList.XML))
	for {
		t, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := t.(xml.StartElement)
		if !ok || se.Name.Local != "instrumentConfiguration" {
			continue
		}
		var conf instrumentConfiguration
		if err := d.DecodeElement(&conf, &se); err != nil {
			return nil, err
		}
		for _, a := range conf.Analyzer {
			for _, cv := range a.CvPar {
				instr = append(instr, cv.Accession)
			}
		}
	}
	return instr, nil
}

// Analyzer returns the name of the calibration function that matches
// the mass analyzer of the instrument ("FTICR", "TOF" or "Orbitrap"),
// or an empty string if there is no specific function.
func (f *MzML) Analyzer() (string, error) {
	instruments, err := f.MSInstruments()
	if err != nil {
		return ``, err
	}
	for _, instr := range instruments {
		switch instr {
		case CvFTICR:
			return `FTICR`, nil
		case CvTOF:
			return `TOF`, nil
		case CvOrbitrap:
			return `Orbitrap`, nil
		}
	}
	return ``, nil
}

// traverseScan fills f.index2id
func (f *MzML) traverseScan() error {
	f.index2id = make([]string, f.NumSpecs())
	for i, spec := range f.content.Run.SpectrumList.Spectrum {
		if i != spec.Index {
			return ErrInvalidScanIndex
		}
		f.index2id[i] = spec.ID
	}
	return nil
}

// ScanID converts a scan index (used to access the scan data) into a scan id
// (used in the mzML file)
func (f *MzML) ScanID(scanIndex int) (string, error) {
	if scanIndex >= 0 && scanIndex < f.NumSpecs() {
		return f.index2id[scanIndex], nil
	}
	return "", ErrInvalidScanIndex
}
