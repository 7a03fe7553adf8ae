package memorial

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// cacheSubdir holds downscaled copies of dataset images, relative to the
// dataset directory.
const cacheSubdir = ".memorial-cache"

// errNotResized is returned by downscaleImage when the source is already
// narrow enough.
var errNotResized = errors.New("image within width limit")

// downscaleImage decodes an image from src and, if it is wider than
// maxWidth, scales it down and encodes it as JPEG.
func downscaleImage(src io.Reader, maxWidth, quality int) ([]byte, image.Point, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth {
		return nil, image.Pt(w, h), errNotResized
	}

	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, image.Point{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), image.Pt(maxWidth, newH), nil
}

// assetOptimizer rewrites image references to downscaled copies stored
// under the dataset directory. Each reference is processed at most once per
// optimizer. It is not safe for concurrent use.
type assetOptimizer struct {
	assets   DirAssets
	maxWidth int
	quality  int
	log      *zap.Logger
	done     map[string]string
}

func newAssetOptimizer(baseDir string, cfg Config, log *zap.Logger) *assetOptimizer {
	return &assetOptimizer{
		assets:   DirAssets(baseDir),
		maxWidth: cfg.MaxImageWidth,
		quality:  cfg.JPEGQuality,
		log:      log,
		done:     make(map[string]string),
	}
}

// resolve returns the reference to use for original. Failures are logged
// and leave the original reference in place.
func (o *assetOptimizer) resolve(original string) string {
	r, err := o.optimize(original)
	if err != nil {
		if !errors.Is(err, errNotResized) {
			o.log.Warn("image left unoptimized", zap.String("ref", original), zap.Error(err))
		}
		return original
	}
	return r
}

func (o *assetOptimizer) ref(original string) string {
	if r, ok := o.done[original]; ok {
		return r
	}
	return original
}

func (o *assetOptimizer) optimize(original string) (string, error) {
	f, err := os.Open(o.assets.Path(original))
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, size, err := downscaleImage(f, o.maxWidth, o.quality)
	if err != nil {
		return "", err
	}

	name := cacheFilename(original)
	dir := o.assets.Path(cacheSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	o.log.Debug("image downscaled",
		zap.String("ref", original),
		zap.Int("width", size.X),
		zap.Int("height", size.Y),
		zap.Int("bytes", len(data)))
	return path.Join(cacheSubdir, name), nil
}

// cacheFilename derives a stable file name from an asset reference, e.g.
// "photos/Grandpa 1.PNG" -> "photos-grandpa-1-<hash>.jpg". The hash of the
// cleaned reference keeps distinct images apart when their slugs collide.
func cacheFilename(ref string) string {
	clean := path.Clean(filepath.ToSlash(ref))
	ext := path.Ext(clean)
	base := Slugify(strings.TrimSuffix(clean, ext))
	if base == "" {
		base = "image"
	}
	sum := sha256.Sum256([]byte(clean))
	return base + "-" + hex.EncodeToString(sum[:8]) + ".jpg"
}

// apply rewrites every image reference in rc. Distinct images are
// downscaled in parallel.
func (o *assetOptimizer) apply(rc *RenderContext) {
	refs := []string{rc.Person.ProfileImage, rc.BackgroundCover.Image, rc.BackgroundPages.Image}
	for _, bg := range rc.BackgroundPagesList {
		refs = append(refs, bg.Image)
	}
	for _, p := range rc.Pages {
		for _, c := range p {
			refs = append(refs, c.ProfileImage)
		}
	}

	var pending []string
	seen := make(map[string]bool)
	for _, r := range refs {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		if _, ok := o.done[r]; !ok {
			pending = append(pending, r)
		}
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, original := range pending {
		g.Go(func() error {
			r := o.resolve(original)
			mu.Lock()
			o.done[original] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	rc.Person.ProfileImage = o.ref(rc.Person.ProfileImage)
	rc.BackgroundCover.Image = o.ref(rc.BackgroundCover.Image)
	rc.BackgroundPages.Image = o.ref(rc.BackgroundPages.Image)
	for i := range rc.BackgroundPagesList {
		rc.BackgroundPagesList[i].Image = o.ref(rc.BackgroundPagesList[i].Image)
	}
	for _, p := range rc.Pages {
		for i := range p {
			p[i].ProfileImage = o.ref(p[i].ProfileImage)
		}
	}
}
