package mzml

import (
	"bytes"
	"strings"
	"testing"
)

func TestWrite(t *testing.T) {
	f, err := Read(strings.NewReader(makeMzML(t, testScans())))
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	p, err := f.ReadScan(1)
	if err != nil {
		t.Fatalf("ReadScan: error return %v", err)
	}
	p[0].Mz = 42.0
	p[0].Intens = 777.0
	if err := f.UpdateScan(1, p, true, false); err != nil {
		t.Fatalf("UpdateScan: error return %v", err)
	}
	if err := f.UpdateScan(0, nil, true, true); err != nil {
		t.Fatalf("UpdateScan: error return %v", err)
	}
	if err := f.UpdateScan(2, p, true, true); err != ErrInvalidScanIndex {
		t.Errorf("UpdateScan: error return %v, should be ErrInvalidScanIndex", err)
	}
	f.AppendSoftwareInfo("mzQuant", "test")
	f.AppendDataProcessing(DataProcessing{
		ID: "mzQuant",
		ProcessingMeth: []ProcessingMethod{{
			Order:       0,
			SoftwareRef: "mzQuant",
			CvPar:       []CVParam{{Accession: `MS:1001485`, Name: `m/z calibration`}},
		}},
	})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: error return %v", err)
	}
	out := buf.String()
	for _, s := range []string{`<software id="mzQuant" version="test">`, `MS:1001485`,
		`accession="MS:1000744"`, `name="time-of-flight"`} {
		if !strings.Contains(out, s) {
			t.Errorf("Write: output does not contain %s", s)
		}
	}

	f, err = Read(&buf)
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	p, err = f.ReadScan(1)
	if err != nil {
		t.Fatalf("ReadScan: error return %v", err)
	}
	// Check if only mz changed for scan 1 peak 0
	if p[0].Mz != 42.0 {
		t.Errorf("ReadScan: peak 0 mz %v", p[0].Mz)
	}
	if p[0].Intens != testPeaks[0].Intens {
		t.Errorf("ReadScan: peak 0 intens %v", p[0].Intens)
	}
	// Empty scans get a dummy peak
	p, err = f.ReadScan(0)
	if err != nil {
		t.Fatalf("ReadScan: error return %v", err)
	}
	if len(p) != 1 {
		t.Errorf("ReadScan: %d peaks, should be 1", len(p))
	}
	if f.content.SoftwareList.Count != 2 || f.content.DataProcessingList.Count != 2 {
		t.Errorf("Expected 2 software and 2 data processing entries, got: %d and %d",
			f.content.SoftwareList.Count, f.content.DataProcessingList.Count)
	}
	if analyzer, _ := f.Analyzer(); analyzer != `TOF` {
		t.Errorf("Analyzer: %s, should be TOF", analyzer)
	}
}
