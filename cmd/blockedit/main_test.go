package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile, grammarFile, docFile, startSymbol, debug = "", "", "", "", false
	showFormat, scriptFile = "source", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestShowNewDocument(t *testing.T) {
	out, err := execute(t, "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if out != "<stmt>\n" {
		t.Errorf("output = %q", out)
	}
}

func TestScriptThenShow(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "prog.blk")
	script := filepath.Join(dir, "edit.txt")
	data := "choose return_stmt 0\nchoose ident 0.1\nselect 0.1\ntype x\nsave\n"
	if err := os.WriteFile(script, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "repl", "--document", doc, "--script", script); err != nil {
		t.Fatalf("repl: %v", err)
	}
	out, err := execute(t, "show", "-d", doc)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if out != "return x\n<stmt>\n" {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "check", "-d", doc)
	if err != nil || !strings.Contains(out, "elements") {
		t.Errorf("check = %q, %v", out, err)
	}
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockedit.yaml")
	if _, err := execute(t, "init-config", "--start", "print_stmt", path); err != nil {
		t.Fatalf("init-config: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "start: print_stmt") {
		t.Errorf("config = %s", data)
	}

	out, err := execute(t, "show", "-c", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if out != "print <value>\n" {
		t.Errorf("output = %q", out)
	}
}

func TestShowBadFormat(t *testing.T) {
	if _, err := execute(t, "show", "-f", "xml"); err == nil {
		t.Error("unknown format should fail")
	}
}
