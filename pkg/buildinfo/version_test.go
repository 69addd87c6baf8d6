package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	defer func() { Version = old }()

	tmpl := Template()
	if !strings.Contains(tmpl, "{{.Name}} version v1.2.3") {
		t.Errorf("Template() = %q", tmpl)
	}
	if !strings.Contains(String(), "version: v1.2.3") {
		t.Errorf("String() = %q", String())
	}
}
