package memorial

import (
	"bytes"
	"encoding/json"
)

// Default background styling used by the render pass.
const (
	DefaultBackgroundSize     = "cover"
	DefaultBackgroundPosition = "center"
)

// Background is a fully defaulted background style consumed by templates.
type Background struct {
	Image    string `json:"image"`
	Size     string `json:"size"`
	Position string `json:"position"`
}

type entryKind int

const (
	entryAbsent entryKind = iota // key not present in the source
	entryRef                     // plain image reference
	entryObject                  // {"image", "size", "position"}
	entryOther                   // present, but null or of an unusable shape
)

// BackgroundEntry is a raw background configuration value. It is either a
// plain image reference, an object with optional image/size/position fields,
// or absent. Values of any other JSON shape are kept as present but unusable.
type BackgroundEntry struct {
	kind     entryKind
	ref      string
	image    *string
	size     *string
	position *string
}

// BackgroundRef returns an entry holding a plain image reference.
func BackgroundRef(image string) BackgroundEntry {
	return BackgroundEntry{kind: entryRef, ref: image}
}

// BackgroundObject returns an object entry. Empty arguments are treated as
// unset fields, so they fall back to the resolver defaults.
func BackgroundObject(image, size, position string) BackgroundEntry {
	e := BackgroundEntry{kind: entryObject}
	if image != "" {
		e.image = &image
	}
	if size != "" {
		e.size = &size
	}
	if position != "" {
		e.position = &position
	}
	return e
}

// Present reports whether the entry was configured at all, regardless of its
// shape.
func (e BackgroundEntry) Present() bool {
	return e.kind != entryAbsent
}

// Image returns the configured image reference, or "" when the entry holds
// none.
func (e BackgroundEntry) Image() string {
	switch e.kind {
	case entryRef:
		return e.ref
	case entryObject:
		return valueOr(e.image, "")
	}
	return ""
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *BackgroundEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*e = BackgroundEntry{kind: entryOther}
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = BackgroundRef(s)
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		*e = BackgroundEntry{
			kind:     entryObject,
			image:    stringField(fields, "image"),
			size:     stringField(fields, "size"),
			position: stringField(fields, "position"),
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e BackgroundEntry) MarshalJSON() ([]byte, error) {
	switch e.kind {
	case entryRef:
		return json.Marshal(e.ref)
	case entryObject:
		obj := make(map[string]string, 3)
		if e.image != nil {
			obj["image"] = *e.image
		}
		if e.size != nil {
			obj["size"] = *e.size
		}
		if e.position != nil {
			obj["position"] = *e.position
		}
		return json.Marshal(obj)
	}
	return []byte("null"), nil
}

// stringField returns the named field if it holds a JSON string.
func stringField(fields map[string]json.RawMessage, name string) *string {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// ResolveBackground normalizes a raw entry into a Background. Object fields
// override the defaults independently; anything that is neither a reference
// nor an object yields the defaults with an empty image.
func ResolveBackground(e BackgroundEntry, defaultSize, defaultPosition string) Background {
	switch e.kind {
	case entryRef:
		return Background{Image: e.ref, Size: defaultSize, Position: defaultPosition}
	case entryObject:
		return Background{
			Image:    valueOr(e.image, ""),
			Size:     valueOr(e.size, defaultSize),
			Position: valueOr(e.position, defaultPosition),
		}
	}
	return Background{Size: defaultSize, Position: defaultPosition}
}

func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

// Fallback returns the first present entry, or an absent entry if none is.
func Fallback(entries ...BackgroundEntry) BackgroundEntry {
	for _, e := range entries {
		if e.Present() {
			return e
		}
	}
	return BackgroundEntry{}
}

// CoverEntry is the raw entry used for the cover: backgrounds.cover, then the
// legacy top-level background_image.
func (d *Dataset) CoverEntry() BackgroundEntry {
	return Fallback(d.Backgrounds.Cover, d.BackgroundImage)
}

// PagesEntry is the raw entry used for comment pages: backgrounds.pages, then
// backgrounds.cover.
func (d *Dataset) PagesEntry() BackgroundEntry {
	return Fallback(d.Backgrounds.Pages, d.Backgrounds.Cover)
}

// ResolvePagesList resolves every pages_list entry on its own. The result is
// never padded to the page count.
func ResolvePagesList(entries []BackgroundEntry, defaultSize, defaultPosition string) []Background {
	out := make([]Background, 0, len(entries))
	for _, e := range entries {
		out = append(out, ResolveBackground(e, defaultSize, defaultPosition))
	}
	return out
}
