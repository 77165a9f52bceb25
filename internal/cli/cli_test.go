package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"astra-msgdb/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func fixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "archives", "gamedata.json"), `{"K1": "Hello", "MPID_Lueur": "Alear"}`)
	writeFile(t, filepath.Join(dir, "archives", "dlc.yaml"), "K1: World\nK2: Extra\n")
	writeFile(t, filepath.Join(dir, "entities.yaml"), "persons:\n  - pid: PID_Lueur\n    name: MPID_Lueur\n")
	writeFile(t, filepath.Join(dir, "scripts", "intro.txt"), "[MID_Intro]\n$Window(Lueur)Hi.\n")

	return &config.Config{
		ArchiveDir:     filepath.Join(dir, "archives"),
		ArchiveBackend: "dir",
		ArchiveOrder:   []string{"gamedata", "dlc"},
		EntityFile:     filepath.Join(dir, "entities.yaml"),
		DefaultArchive: "gamedata",
		WorkerCount:    2,
		LogLevel:       "error",
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestArchivesCommand(t *testing.T) {
	cfg := fixture(t)
	cfg.OverrideArchive = "dlc"
	out, err := run(t, cfg, "archives")
	if err != nil {
		t.Fatal(err)
	}
	want := "0\tgamedata\t2\n1\tdlc\t2\toverride\n"
	if out != want {
		t.Errorf("archives =\n%q\nwant\n%q", out, want)
	}
}

func TestLookupCommand(t *testing.T) {
	cfg := fixture(t)
	out, err := run(t, cfg, "lookup", "K1")
	if err != nil {
		t.Fatal(err)
	}
	if out != "World\n" {
		t.Errorf("lookup K1 = %q", out)
	}

	if _, err := run(t, fixture(t), "lookup", "K3"); err == nil {
		t.Error("lookup of a missing key should fail")
	}
}

func TestSetCommand(t *testing.T) {
	cfg := fixture(t)

	out, err := run(t, cfg, "set", "K3", "New")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "gamedata\tK3\t1 archive(s) saved") {
		t.Errorf("set output = %q", out)
	}

	data, err := os.ReadFile(filepath.Join(cfg.ArchiveDir, "gamedata.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"K3": "New"`) {
		t.Errorf("gamedata.json = %s", data)
	}

	if out, err := run(t, cfg, "lookup", "K3"); err != nil || out != "New\n" {
		t.Errorf("lookup after set = %q, %v", out, err)
	}
}

func TestSetCommandDryRun(t *testing.T) {
	cfg := fixture(t)
	before, _ := os.ReadFile(filepath.Join(cfg.ArchiveDir, "dlc.yaml"))

	out, err := run(t, cfg, "set", "K2", "Changed", "--dry-run")
	if err != nil {
		t.Fatal(err)
	}
	if out != "dlc\tK2\t(dry run)\n" {
		t.Errorf("set output = %q", out)
	}

	after, _ := os.ReadFile(filepath.Join(cfg.ArchiveDir, "dlc.yaml"))
	if !bytes.Equal(before, after) {
		t.Error("dry run rewrote dlc.yaml")
	}
}

func TestSetCommandUnknownArchive(t *testing.T) {
	if _, err := run(t, fixture(t), "set", "K9", "x", "--archive", "missing"); err == nil {
		t.Error("set into an unknown archive should fail")
	}
}

func TestPreviewCommand(t *testing.T) {
	cfg := fixture(t)
	script := filepath.Join(filepath.Dir(cfg.ArchiveDir), "scripts", "intro.txt")

	out, err := run(t, cfg, "preview", script)
	if err != nil {
		t.Fatal(err)
	}
	if out != "[MID_Intro]\n$Window(Alear)Hi.\n" {
		t.Errorf("preview = %q", out)
	}

	bad := filepath.Join(filepath.Dir(cfg.ArchiveDir), "scripts", "bad.txt")
	writeFile(t, bad, "[MID_Bad\n")
	if _, err := run(t, cfg, "preview", "--strict", bad); err == nil {
		t.Error("strict preview of a malformed script should fail")
	}
	if out, err := run(t, cfg, "preview", bad); err != nil || out != "" {
		t.Errorf("lenient preview = %q, %v", out, err)
	}
}

func TestExportCommandStdout(t *testing.T) {
	out, err := run(t, fixture(t), "export", "--output", "-")
	if err != nil {
		t.Fatal(err)
	}
	want := "key\tvalue\tarchive\n" +
		"K1\tWorld\tdlc\n" +
		"K2\tExtra\tdlc\n" +
		"MPID_Lueur\tAlear\tgamedata\n"
	if out != want {
		t.Errorf("export =\n%q\nwant\n%q", out, want)
	}
}

func TestUnknownBackend(t *testing.T) {
	cfg := fixture(t)
	cfg.ArchiveBackend = "s3"
	if _, err := run(t, cfg, "archives"); err == nil {
		t.Error("unknown backend should fail")
	}
}
