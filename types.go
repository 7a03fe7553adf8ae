package memorial

// Person is the subject of the memorial book, shown on the cover.
type Person struct {
	Name         string `json:"name"`
	Subtitle     string `json:"subtitle"`
	ProfileImage string `json:"profile_image"`
	HeaderNote   string `json:"header_note"`
	DateRange    string `json:"date_range"`
}

// Comment is a single tribute left by an author.
type Comment struct {
	Author       string `json:"author"`
	Message      string `json:"message"`
	ProfileImage string `json:"profile_image,omitempty"`
	Height       string `json:"height,omitempty"` // e.g. "120px"
}

// Page is a logical group of comments laid out together. Pages have no
// identity of their own and are recomputed on every render.
type Page []Comment

// Backgrounds is the raw, scoped background configuration of a dataset.
type Backgrounds struct {
	Cover     BackgroundEntry   `json:"cover"`
	Pages     BackgroundEntry   `json:"pages"`
	PagesList []BackgroundEntry `json:"pages_list"`
}

// Dataset is the decoded memorial document source.
type Dataset struct {
	Person      Person      `json:"person"`
	Backgrounds Backgrounds `json:"backgrounds"`
	Comments    []Comment   `json:"comments"`

	// BackgroundImage is the legacy top-level background, used only when
	// backgrounds.cover is not configured.
	BackgroundImage BackgroundEntry `json:"background_image"`

	// Path and BaseDir are set by LoadDataset.
	Path    string `json:"-"`
	BaseDir string `json:"-"`
}
