package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Check is one line of the doctor report.
type Check struct {
	Name  string
	Value string
	OK    bool
	Note  string
}

// Diagnose resolves every path the diary touches and reports whether it
// is usable. Missing inbox and output directories are fine; they are
// created on first write.
func Diagnose(cfg *Config) []Check {
	ccfg := cfg.CompilerConfig()
	checks := []Check{
		{Name: "repoRoot", Value: cfg.RepoRoot, OK: isDir(cfg.RepoRoot)},
		dirCheck("inbox", cfg.InboxPath()),
		dirCheck("index", filepath.Dir(cfg.SQLitePath())),
		{Name: "defaultCollection", Value: cfg.DefaultCollection(), OK: cfg.DefaultCollection() != ""},
	}

	for _, key := range ccfg.Keys() {
		col := ccfg.Collections[key]
		tmpl := ccfg.TemplatePath(col)
		c := Check{Name: key + ".template", Value: tmpl, OK: isFile(tmpl)}
		if !c.OK {
			c.Note = "template not found"
		}
		checks = append(checks, c, dirCheck(key+".outputDir", ccfg.OutputDir(col)))
	}
	return checks
}

// Healthy reports whether every check passed.
func Healthy(checks []Check) bool {
	for _, c := range checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// WriteReport prints checks one per line.
func WriteReport(w io.Writer, checks []Check) {
	for _, c := range checks {
		mark := "ok"
		if !c.OK {
			mark = "!!"
		}
		line := fmt.Sprintf("[%s] %-24s %s", mark, c.Name, c.Value)
		if c.Note != "" {
			line += " (" + c.Note + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func dirCheck(name, path string) Check {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return Check{Name: name, Value: path, OK: true, Note: "will be created"}
	case err != nil:
		return Check{Name: name, Value: path, Note: err.Error()}
	case !info.IsDir():
		return Check{Name: name, Value: path, Note: "not a directory"}
	}
	return Check{Name: name, Value: path, OK: true}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
