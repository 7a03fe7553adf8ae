package memorial

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	backgroundSizes  = []string{"cover", "contain", "auto"}
	rePercentSize    = regexp.MustCompile(`^\d+%\s+\d+%$`)
	rePixelHeight    = regexp.MustCompile(`^\d+px$`)
	personFields     = []string{"name", "subtitle", "profile_image", "header_note", "date_range"}
	backgroundFields = []string{"image", "size", "position"}
)

// Report describes a validation run: the checks that passed before it
// stopped, and any non-fatal warnings.
type Report struct {
	Passed           []string
	Warnings         []string
	Comments         int
	DuplicateAuthors []string
}

// OK reports whether every check ran and passed.
func (r *Report) OK() bool {
	return len(r.Passed) == len(validationStages)
}

type validation struct {
	doc    map[string]any
	assets AssetStore
	report *Report
}

type stage struct {
	run     func(*validation) error
	message func(*validation) string
}

func fixed(msg string) func(*validation) string {
	return func(*validation) string { return msg }
}

// validationStages run in order; the first failure stops the run.
var validationStages = []stage{
	{run: func(*validation) error { return nil }, message: fixed("JSON syntax is valid")},
	{run: (*validation).person, message: fixed("Person object is valid")},
	{run: (*validation).backgrounds, message: fixed("Backgrounds configuration is valid")},
	{run: (*validation).comments, message: func(v *validation) string {
		return fmt.Sprintf("All %d comments are valid", v.report.Comments)
	}},
}

// ValidateFile reads the dataset at path and validates it, resolving assets
// against the file's directory.
func ValidateFile(path string) (*Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Report{}, &LoadError{Path: path, Err: fmt.Errorf("file not found: %s", path)}
		}
		return &Report{}, &LoadError{Path: path, Err: err}
	}
	report, err := Validate(raw, DirAssets(filepath.Dir(path)))
	var le *LoadError
	if errors.As(err, &le) {
		le.Path = path
	}
	return report, err
}

// Validate checks a raw dataset document. It stops at the first failure and
// returns it as a *ValidationError carrying the offending path. Duplicate
// authors are reported as warnings and do not fail validation.
func Validate(raw []byte, assets AssetStore) (*Report, error) {
	report := &Report{}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return report, &LoadError{Err: fmt.Errorf("invalid JSON syntax: %w", err)}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return report, invalidf("", "Top-level value must be an object")
	}

	v := &validation{doc: obj, assets: assets, report: report}
	for _, s := range validationStages {
		if err := s.run(v); err != nil {
			return report, err
		}
		report.Passed = append(report.Passed, s.message(v))
	}
	return report, nil
}

func (v *validation) assetExists(path, ref string) error {
	ok, err := v.assets.Exists(ref)
	if err != nil {
		return fmt.Errorf("check %s: %w", path, err)
	}
	if !ok {
		return errAssetMissing
	}
	return nil
}

var errAssetMissing = errors.New("asset not found")

func (v *validation) person() error {
	raw, ok := v.doc["person"]
	if !ok {
		return invalidf("person", "Missing required top-level key: 'person'")
	}
	person, ok := raw.(map[string]any)
	if !ok {
		return invalidf("person", "'person' must be an object")
	}
	for _, field := range personFields {
		val, ok := person[field]
		if !ok {
			return invalidf("person."+field, "Missing required field in person: '%s'", field)
		}
		if !nonBlank(val) {
			return invalidf("person."+field, "Field 'person.%s' must be a non-empty string", field)
		}
	}
	ref := person["profile_image"].(string)
	if err := v.assetExists("person.profile_image", ref); err != nil {
		if errors.Is(err, errAssetMissing) {
			return invalidf("person.profile_image", "Person profile image not found: %s", ref)
		}
		return err
	}
	return nil
}

func (v *validation) backgrounds() error {
	raw, ok := v.doc["backgrounds"]
	if !ok {
		return invalidf("backgrounds", "Missing required top-level key: 'backgrounds'")
	}
	bgs, ok := raw.(map[string]any)
	if !ok {
		return invalidf("backgrounds", "'backgrounds' must be an object")
	}

	cover, ok := bgs["cover"]
	if !ok {
		return invalidf("backgrounds.cover", "Missing required field: backgrounds.cover")
	}
	if err := v.backgroundObject(cover, "backgrounds.cover"); err != nil {
		return err
	}

	if pages, ok := bgs["pages"]; ok {
		if err := v.backgroundObject(pages, "backgrounds.pages"); err != nil {
			return err
		}
	}

	if rawList, ok := bgs["pages_list"]; ok {
		list, ok := rawList.([]any)
		if !ok {
			return invalidf("backgrounds.pages_list", "backgrounds.pages_list must be an array")
		}
		for i, bg := range list {
			if err := v.backgroundObject(bg, fmt.Sprintf("backgrounds.pages_list[%d]", i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validation) backgroundObject(raw any, path string) error {
	bg, ok := raw.(map[string]any)
	if !ok {
		return invalidf(path, "%s must be an object", path)
	}
	for _, field := range backgroundFields {
		if _, ok := bg[field]; !ok {
			return invalidf(path+"."+field, "Missing required field in %s: '%s'", path, field)
		}
	}

	if !nonBlank(bg["image"]) {
		return invalidf(path+".image", "%s.image must be a non-empty string", path)
	}
	image := bg["image"].(string)
	if err := v.assetExists(path+".image", image); err != nil {
		if errors.Is(err, errAssetMissing) {
			return invalidf(path+".image", "%s image not found: %s", path, image)
		}
		return err
	}

	if !validBackgroundSize(bg["size"]) {
		return invalidf(path+".size",
			"%s.size must be 'cover', 'contain', 'auto', or 'XX%% XX%%' format. Got: '%s'", path, display(bg["size"]))
	}

	if !nonBlank(bg["position"]) {
		return invalidf(path+".position", "%s.position must be a non-empty string", path)
	}
	return nil
}

func validBackgroundSize(raw any) bool {
	size, ok := raw.(string)
	if !ok {
		return false
	}
	for _, s := range backgroundSizes {
		if size == s {
			return true
		}
	}
	return rePercentSize.MatchString(size)
}

func (v *validation) comments() error {
	raw, ok := v.doc["comments"]
	if !ok {
		return invalidf("comments", "Missing required top-level key: 'comments'")
	}
	comments, ok := raw.([]any)
	if !ok {
		return invalidf("comments", "'comments' must be an array")
	}
	if len(comments) == 0 {
		return invalidf("comments", "'comments' array is empty")
	}

	authors := make([]string, 0, len(comments))
	for i, rawComment := range comments {
		path := fmt.Sprintf("comments[%d]", i)
		comment, ok := rawComment.(map[string]any)
		if !ok {
			return invalidf(path, "%s must be an object", path)
		}
		if _, ok := comment["author"]; !ok {
			return invalidf(path+".author", "Missing 'author' in %s", path)
		}
		if _, ok := comment["message"]; !ok {
			return invalidf(path+".message", "Missing 'message' in %s", path)
		}

		if !nonBlank(comment["author"]) {
			return invalidf(path+".author", "%s.author must be a non-empty string", path)
		}
		author := comment["author"].(string)
		authors = append(authors, author)

		if !nonBlank(comment["message"]) {
			return invalidf(path+".message", "%s.message must be a non-empty string", path)
		}

		if err := v.commentImage(comment, path, author); err != nil {
			return err
		}

		if h, ok := comment["height"]; ok {
			s, isString := h.(string)
			if !isString || !rePixelHeight.MatchString(s) {
				return invalidf(path+".height", "%s.height must be in format 'XXXpx'. Got: '%s'", path, display(h))
			}
		}
	}

	v.report.Comments = len(comments)
	if dups := duplicates(authors); len(dups) > 0 {
		v.report.DuplicateAuthors = dups
		v.report.Warnings = append(v.report.Warnings, "Duplicate authors found: "+strings.Join(dups, ", "))
	}
	return nil
}

func (v *validation) commentImage(comment map[string]any, path, author string) error {
	raw, ok := comment["profile_image"]
	if !ok || raw == nil {
		return nil
	}
	ref, ok := raw.(string)
	if !ok {
		return invalidf(path+".profile_image", "Invalid profile_image for %s: %s.profile_image must be a string", author, path)
	}
	if ref == "" {
		return nil
	}
	if err := v.assetExists(path+".profile_image", ref); err != nil {
		if errors.Is(err, errAssetMissing) {
			return invalidf(path+".profile_image", "Invalid profile_image for %s: %s.profile_image not found: %s", author, path, ref)
		}
		return err
	}
	return nil
}

// duplicates returns the values that occur more than once, in order of first
// appearance.
func duplicates(vals []string) []string {
	counts := make(map[string]int, len(vals))
	for _, s := range vals {
		counts[s]++
	}
	var out []string
	for _, s := range vals {
		if counts[s] > 1 {
			out = append(out, s)
			counts[s] = 0
		}
	}
	return out
}

func nonBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// display renders a decoded JSON value for an error message.
func display(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
