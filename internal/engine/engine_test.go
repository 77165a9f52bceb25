package engine

import (
	"errors"
	"testing"

	"astra-msgdb/internal/archive"
	"astra-msgdb/internal/entity"
	"astra-msgdb/internal/msgdb"
	"astra-msgdb/internal/translate"
)

func newEngine() (*Engine, *archive.Archive, *archive.Archive) {
	base := archive.New("Base", map[string]string{"K1": "Hello", "MPID_Lueur": "Alear"})
	dlc := archive.New("DLC", map[string]string{"K1": "World", "K2": "Extra"})
	return New(msgdb.Build([]msgdb.Archive{base, dlc}, "")), base, dlc
}

func TestEngineScenario(t *testing.T) {
	e, base, dlc := newEngine()

	if v, _ := e.Message("K1"); v != "World" {
		t.Errorf("K1 = %q, want World", v)
	}
	if v, _ := e.Message("K2"); v != "Extra" {
		t.Errorf("K2 = %q, want Extra", v)
	}
	if _, ok := e.Message("K3"); ok {
		t.Error("K3 should be absent")
	}

	e.WithMessageMut("K3", "Base", func(v *string) bool {
		if v == nil {
			return false
		}
		*v = "New"
		return true
	})

	if v, _ := e.Message("K3"); v != "New" {
		t.Errorf("K3 = %q, want New", v)
	}
	if base.Snapshot()["K3"] != "New" {
		t.Error("K3 not written to Base")
	}
	if _, ok := dlc.Snapshot()["K3"]; ok {
		t.Error("K3 leaked into DLC")
	}
}

func TestEngineTranslateScript(t *testing.T) {
	e, _, _ := newEngine()
	tables := entity.Tables{Persons: []entity.Person{{PID: "PID_001", Name: "MPID_Lueur"}}}

	got, ok := e.TranslateScript("[MID]\n$Window(PID_001)Hi", tables)
	if !ok || got != "[MID]\n$Window(Alear)Hi\n" {
		t.Errorf("TranslateScript = %q, %v", got, ok)
	}

	if got, ok := e.TranslateScript("[MID\n", tables); ok || got != "" {
		t.Errorf("malformed script = %q, %v", got, ok)
	}
	if _, err := e.TranslateScriptErr("[MID\n", tables); !errors.Is(err, translate.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}
