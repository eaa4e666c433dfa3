// Package status renders the plain-text diagnostic dump the configurator's
// "export diagnostics" flow attaches to support requests.
package status

import (
	"strings"
	"text/template"

	"github.com/gkr-labs/ctrl/core"
)

type Device struct {
	Name     string
	Serial   string
	State    string
	Firmware string
	Proxy    bool
	Log      []string
}

type Data struct {
	Version string
	Devices []Device
	Trace   string
}

const templateString = `GKR configurator diagnostics (core {{.Version}})

devices: {{len .Devices}}
{{range .Devices}}
* {{.Name}}{{if .Proxy}} [wireless proxy]{{end}}
  serial:   {{if .Serial}}{{.Serial}}{{else}}-{{end}}
  state:    {{.State}}
  firmware: {{.Firmware}}
{{- if .Log}}
  device log (newest first):
{{- range .Log}}
    {{printf "%q" .}}
{{- end}}
{{- end}}
{{end}}
--- trace (newest first) ---
{{.Trace}}`

var statusTemplate = template.Must(template.New("status").Parse(templateString))

// Snapshot captures one view for the dump.
func Snapshot(v core.View) Device {
	return Device{
		Name:     v.Name(),
		Serial:   v.Serial(),
		State:    v.State().String(),
		Firmware: v.FirmwareString(),
		Proxy:    v.IsProxy(),
		Log:      v.Log().Lines(),
	}
}

func Render(d Data) (string, error) {
	var b strings.Builder
	if err := statusTemplate.Execute(&b, d); err != nil {
		return "", err
	}
	return b.String(), nil
}
