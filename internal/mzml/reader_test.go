package mzml

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

// testScan is a spectrum that is written into a generated mzML file
type testScan struct {
	id      string
	msLevel int
	peaks   []Peak
	format  arrayFormat // only zlib and bits64 are used
	extraCv string
}

func binaryArray(t *testing.T, p []Peak, af arrayFormat) string {
	t.Helper()
	b64, err := encodeBinary(p, af)
	if err != nil {
		t.Fatalf("encodeBinary: %v", err)
	}
	cv := `<cvParam cvRef="MS" accession="MS:1000521" name="32-bit float"/>`
	if af.bits64 {
		cv = `<cvParam cvRef="MS" accession="MS:1000523" name="64-bit float"/>`
	}
	if af.zlib {
		cv += `<cvParam cvRef="MS" accession="MS:1000574" name="zlib compression"/>`
	} else {
		cv += `<cvParam cvRef="MS" accession="MS:1000576" name="no compression"/>`
	}
	if af.mz {
		cv += `<cvParam cvRef="MS" accession="MS:1000514" name="m/z array"/>`
	} else {
		cv += `<cvParam cvRef="MS" accession="MS:1000515" name="intensity array"/>`
	}
	return fmt.Sprintf(`<binaryDataArray encodedLength="%d">%s<binary>%s</binary></binaryDataArray>`,
		len(b64), cv, b64)
}

// makeMzML generates an indexed mzML document with the given scans,
// acquired on a TOF instrument
func makeMzML(t *testing.T, scans []testScan) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="ISO-8859-1"?>
<indexedmzML xmlns="http://psi.hupo.org/ms/mzml">
<mzML xmlns="http://psi.hupo.org/ms/mzml" version="1.1.0">
<cvList count="1"><cv id="MS" fullName="Proteomics Standards Initiative Mass Spectrometry Ontology" URI="https://raw.githubusercontent.com/HUPO-PSI/psi-ms-CV/master/psi-ms.obo"/></cvList>
<fileDescription><fileContent><cvParam cvRef="MS" accession="MS:1000579" name="MS1 spectrum"/></fileContent></fileDescription>
<softwareList count="1"><software id="acquisition" version="2.1"/></softwareList>
<instrumentConfigurationList count="1">
<instrumentConfiguration id="IC1"><componentList count="3">
<source order="1"><cvParam cvRef="MS" accession="MS:1000075" name="matrix-assisted laser desorption ionization"/></source>
<analyzer order="2"><cvParam cvRef="MS" accession="MS:1000084" name="time-of-flight"/></analyzer>
<detector order="3"><cvParam cvRef="MS" accession="MS:1000114" name="microchannel plate detector"/></detector>
</componentList></instrumentConfiguration>
</instrumentConfigurationList>
<dataProcessingList count="1"><dataProcessing id="conversion"><processingMethod order="0" softwareRef="acquisition"><cvParam cvRef="MS" accession="MS:1000544" name="Conversion to mzML"/></processingMethod></dataProcessing></dataProcessingList>
<run id="run1" defaultInstrumentConfigurationRef="IC1">
`)
	fmt.Fprintf(&sb, `<spectrumList count="%d" defaultDataProcessingRef="conversion">`, len(scans))
	for i, s := range scans {
		fmt.Fprintf(&sb, `<spectrum index="%d" id="%s" defaultArrayLength="%d">`, i, s.id, len(s.peaks))
		fmt.Fprintf(&sb, `<cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="%d"/>`, s.msLevel)
		sb.WriteString(s.extraCv)
		sb.WriteString(`<scanList count="1"><scan><cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="1.5" unitAccession="UO:0000010"/></scan></scanList>`)
		if s.msLevel == 2 {
			sb.WriteString(`<precursorList count="1"><precursor><selectedIonList count="1"><selectedIon><cvParam cvRef="MS" accession="MS:1000744" name="selected ion m/z" value="1000.5"/></selectedIon></selectedIonList></precursor></precursorList>`)
		}
		sb.WriteString(`<binaryDataArrayList count="2">`)
		mzFormat := s.format
		mzFormat.mz = true
		sb.WriteString(binaryArray(t, s.peaks, mzFormat))
		intFormat := s.format
		intFormat.intensity = true
		sb.WriteString(binaryArray(t, s.peaks, intFormat))
		sb.WriteString(`</binaryDataArrayList></spectrum>`)
	}
	sb.WriteString(`</spectrumList></run></mzML></indexedmzML>`)
	return sb.String()
}

var testPeaks = []Peak{
	{Mz: 1000.125, Intens: 100},
	{Mz: 1000.25, Intens: 2500.5},
	{Mz: 1000.375, Intens: 120},
}

func testScans() []testScan {
	return []testScan{
		{id: "scan=1", msLevel: 2, peaks: testPeaks[:2], format: arrayFormat{bits64: false}},
		{id: "scan=2", msLevel: 1, peaks: testPeaks, format: arrayFormat{zlib: true, bits64: true},
			extraCv: `<cvParam cvRef="MS" accession="MS:1000127" name="centroid spectrum"/><cvParam cvRef="MS" accession="MS:1000285" name="total ion current" value="2720.5"/>`},
	}
}

func TestRead(t *testing.T) {
	f, err := Read(strings.NewReader(makeMzML(t, testScans())))
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	if n := f.NumSpecs(); n != 2 {
		t.Fatalf("NumSpecs: %d, should be 2", n)
	}

	idx, err := f.FirstScan(1)
	if err != nil {
		t.Fatalf("FirstScan: error return %v", err)
	}
	if idx != 1 {
		t.Errorf("FirstScan: %d, should be 1", idx)
	}
	if _, err := f.FirstScan(3); !errors.Is(err, ErrNoScan) {
		t.Errorf("FirstScan: error return %v, should be ErrNoScan", err)
	}

	p, err := f.ReadScan(1)
	if err != nil {
		t.Fatalf("ReadScan: error return %v", err)
	}
	if len(p) != len(testPeaks) {
		t.Fatalf("ReadScan: %d peaks, should be %d", len(p), len(testPeaks))
	}
	for i := range p {
		if p[i] != testPeaks[i] {
			t.Errorf("ReadScan: peak %d %+v, should be %+v", i, p[i], testPeaks[i])
		}
	}
	// 32 bit values are exact for these numbers
	p, err = f.ReadScan(0)
	if err != nil {
		t.Fatalf("ReadScan: error return %v", err)
	}
	if p[1] != testPeaks[1] {
		t.Errorf("ReadScan: peak 1 %+v, should be %+v", p[1], testPeaks[1])
	}

	centroid, err := f.Centroid(0)
	if err != nil || centroid {
		t.Errorf("Centroid: %v (%v), should be false", centroid, err)
	}
	centroid, err = f.Centroid(1)
	if err != nil || !centroid {
		t.Errorf("Centroid: %v (%v), should be true", centroid, err)
	}
	if _, err = f.Centroid(2); err != ErrInvalidScanIndex {
		t.Errorf("Centroid: error return %v, should be ErrInvalidScanIndex", err)
	}

	tic, err := f.TotalIonCurrent(1)
	if err != nil || tic != 2720.5 {
		t.Errorf("TotalIonCurrent: %v (%v), should be 2720.5", tic, err)
	}
	tic, err = f.TotalIonCurrent(0)
	if err != nil || !math.IsNaN(tic) {
		t.Errorf("TotalIonCurrent: %v (%v), should be NaN", tic, err)
	}

	scanID, err := f.ScanID(0)
	if err != nil || scanID != `scan=1` {
		t.Errorf("ScanID: %s (%v), should be scan=1", scanID, err)
	}
	if _, err = f.ScanID(-1); err != ErrInvalidScanIndex {
		t.Errorf("ScanID: error return %v, should be ErrInvalidScanIndex", err)
	}

	analyzer, err := f.Analyzer()
	if err != nil || analyzer != `TOF` {
		t.Errorf("Analyzer: %s (%v), should be TOF", analyzer, err)
	}
}

func TestReadNumpress(t *testing.T) {
	doc := makeMzML(t, testScans())
	doc = strings.Replace(doc, `accession="MS:1000574" name="zlib compression"`,
		`accession="MS:1002312" name="MS-Numpress linear prediction compression"`, 1)
	f, err := Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	if _, err := f.ReadScan(1); !errors.Is(err, ErrUnsupportedCompression) {
		t.Errorf("ReadScan: error return %v, should be ErrUnsupportedCompression", err)
	}
}

func TestReadInvalidIndex(t *testing.T) {
	doc := makeMzML(t, testScans())
	doc = strings.Replace(doc, `<spectrum index="1"`, `<spectrum index="5"`, 1)
	if _, err := Read(bytes.NewBufferString(doc)); err != ErrInvalidScanIndex {
		t.Errorf("Read: error return %v, should be ErrInvalidScanIndex", err)
	}
}
