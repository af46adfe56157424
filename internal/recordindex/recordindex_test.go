package recordindex_test

import (
	"testing"

	"github.com/prefix-dev/pixi-sub001/internal/names"
	"github.com/prefix-dev/pixi-sub001/internal/record"
	"github.com/prefix-dev/pixi-sub001/internal/recordindex"
)

func TestDuplicateEntry(t *testing.T) {
	records := []record.PixiRecord{
		{Binary: &record.BinaryCondaRecord{Name: names.NewCondaName("numpy")}},
		{Binary: &record.BinaryCondaRecord{Name: names.NewCondaName("NumPy")}},
	}

	_, err := recordindex.New(records, names.CondaName{})
	if err == nil {
		t.Fatal("expected DuplicateEntryError")
	}

	if _, ok := err.(recordindex.DuplicateEntryError); !ok {
		t.Errorf("expected DuplicateEntryError, got %T", err)
	}
}

func TestByNameAndPythonInterpreter(t *testing.T) {
	records := []record.PixiRecord{
		{Binary: &record.BinaryCondaRecord{Name: names.NewCondaName("python"), Version: "3.11.4"}},
		{Binary: &record.BinaryCondaRecord{Name: names.NewCondaName("numpy"), Version: "1.25.0"}},
	}

	idx, err := recordindex.New(records, names.NewCondaName("python"))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	rec, ok := idx.ByName(names.NewCondaName("NumPy"))
	if !ok || rec.Binary.Version != "1.25.0" {
		t.Errorf("expected case-insensitive lookup to find numpy, got %+v, ok=%v", rec, ok)
	}

	py, ok := idx.PythonInterpreterRecord()
	if !ok || py.Binary.Version != "3.11.4" {
		t.Errorf("expected python interpreter record, got %+v, ok=%v", py, ok)
	}
}

func TestByPyPiName(t *testing.T) {
	records := []record.PixiRecord{
		{Binary: &record.BinaryCondaRecord{
			Name:  names.NewCondaName("requests"),
			Purls: []string{"pkg:pypi/requests@2.31.0?extras=security"},
		}},
	}

	idx, err := recordindex.New(records, names.CondaName{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	id, ok := idx.ByPyPiName(names.NewPyPiName("Requests"))
	if !ok {
		t.Fatal("expected pypi identifier for requests")
	}

	if id.Version != "2.31.0" || !id.Extras.Has("security") {
		t.Errorf("unexpected identifier: %+v", id)
	}

	if _, ok := idx.ByPyPiName(names.NewPyPiName("flask")); ok {
		t.Error("expected no identifier for unrelated pypi name")
	}
}
