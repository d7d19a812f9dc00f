// migrate.go — Ordered schema upgrades applied before validation.
package layout

// Migration upgrades a record in place from the previous schema version.
// Apply must be idempotent: it is run on every record regardless of the
// version the record was written with.
type Migration struct {
	Version int
	Name    string
	Apply   func(Record)
}

// Migrations run in order. Append new steps; never reorder.
var Migrations = []Migration{
	{Version: 1, Name: "line attributes", Apply: addLineAttributes},
	{Version: 2, Name: "mouse colors", Apply: addMouseColors},
}

// SchemaVersion is the version written by this package.
var SchemaVersion = Migrations[len(Migrations)-1].Version

// Migrate returns an upgraded copy of rec. The input is never modified.
func Migrate(rec Record) Record {
	out := rec.Clone()
	for _, m := range Migrations {
		m.Apply(out)
	}
	return out
}

// addLineAttributes defaults the pass-through Attributes and Css strings
// introduced after the first release.
func addLineAttributes(rec Record) {
	formats, ok := rec["Formats"].(map[string]any)
	if !ok {
		return
	}
	for _, v := range formats {
		lines, ok := v.([]any)
		if !ok {
			continue
		}
		for _, l := range lines {
			line, ok := l.(map[string]any)
			if !ok {
				continue
			}
			if _, ok := line["Attributes"]; !ok {
				line["Attributes"] = ""
			}
			if _, ok := line["Css"]; !ok {
				line["Css"] = ""
			}
		}
	}
}

// addMouseColors gives records written before colours were configurable the
// default ink and editor colours. All three are set together.
func addMouseColors(rec Record) {
	if _, ok := rec["InkColor"]; ok {
		return
	}
	rec["InkColor"] = int(DefaultInkColor)
	rec["ActiveMouseColor"] = int(DefaultActiveColor)
	rec["InactiveMouseColor"] = int(DefaultInactiveColor)
}
