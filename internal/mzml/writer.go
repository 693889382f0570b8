package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"io"
	"math"
)

// Write writes the mzML content. The output has no index.
func (f *MzML) Write(writer io.Writer) error {
	if _, err := io.WriteString(writer, `<?xml version="1.0" encoding="utf-8"?>
`); err != nil {
		return err
	}
	enc := xml.NewEncoder(writer)
	// FIXME: We want readable XML, with XML tags starting on a new line.
	// GO's Encode doesn't always insert newlines, and using
	// Indent only works if the indent string is not empty,
	// resuling in a single space indent.
	enc.Indent(` `, `  `)
	var content mzMLContentWrite

	content.XMLName = f.content.XMLName
	content.Sl1 = "http://psi.hupo.org/ms/mzml http://psidev.info/files/ms/mzML/xsd/mzML1.1.0.xsd"
	content.Version = "1.1.0"
	content.Sl2 = "http://www.w3.org/2001/XMLSchema-instance"
	content.CvList = f.content.CvList
	content.FileDescription = f.content.FileDescription
	content.ReferenceableParamGroupList = f.content.ReferenceableParamGroupList
	content.SoftwareList = f.content.SoftwareList
	content.InstrumentConfigurationList = f.content.InstrumentConfigurationList
	content.DataProcessingList = f.content.DataProcessingList
	content.Run = f.content.Run

	if err := enc.Encode(&content); err != nil {
		return err
	}
	return enc.Flush()
}

// AppendSoftwareInfo adds info to the SoftwareList tag of the mzML file
func (f *MzML) AppendSoftwareInfo(id string, version string) {
	if f.content.SoftwareList == nil {
		f.content.SoftwareList = &softwareList{}
	}
	f.content.SoftwareList.Software = append(f.content.SoftwareList.Software,
		software{ID: id, Version: version})
	f.content.SoftwareList.Count = len(f.content.SoftwareList.Software)
}

// AppendDataProcessing adds info to the DataProcessing tag of the mzML file
func (f *MzML) AppendDataProcessing(proc DataProcessing) {
	if f.content.DataProcessingList == nil {
		f.content.DataProcessingList = &dataProcessingList{}
	}
	f.content.DataProcessingList.DataProcessing = append(f.content.DataProcessingList.DataProcessing, proc)
	f.content.DataProcessingList.Count = len(f.content.DataProcessingList.DataProcessing)
}

// UpdateScan sets the mz/intensity info of a scan
func (f *MzML) UpdateScan(scanIndex int, p []Peak,
	updateMz bool, updateIntens bool) error {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return ErrInvalidScanIndex
	}
	// Workaround for msConvert:
	// Insert a dummy peak if there is none, otherwise msConvert generates an error
	if len(p) == 0 {
		p = []Peak{{}}
	}

	spec := &f.content.Run.SpectrumList.Spectrum[scanIndex]
	spec.DefaultArrayLength = int64(len(p))
	for i := range spec.BinaryDataArrayList.BinaryDataArray {
		b := &spec.BinaryDataArrayList.BinaryDataArray[i]
		af, err := binaryDataPars(b)
		if err != nil {
			return err
		}
		if (af.mz && updateMz) || (af.intensity && updateIntens) {
			b64, err := encodeBinary(p, af)
			if err != nil {
				return err
			}
			b.Binary = b64
			b.ArrayLength = len(p)
			b.EncodedLength = len(b64)
		}
	}
	return nil
}

func encodeBinary(p []Peak, af arrayFormat) (string, error) {
	size := 4
	if af.bits64 {
		size = 8
	}
	raw := make([]byte, len(p)*size)
	for i, peak := range p {
		v := peak.Intens
		if af.mz {
			v = peak.Mz
		}
		if af.bits64 {
			binary.LittleEndian.PutUint64(raw[size*i:], math.Float64bits(v))
		} else {
			binary.LittleEndian.PutUint32(raw[size*i:], math.Float32bits(float32(v)))
		}
	}
	data := raw
	if af.zlib {
		var b bytes.Buffer
		z := zlib.NewWriter(&b)
		if _, err := z.Write(raw); err != nil {
			return ``, err
		}
		// zlib writer must be closed here, otherwise the result is invalid
		if err := z.Close(); err != nil {
			return ``, err
		}
		data = b.Bytes()
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
