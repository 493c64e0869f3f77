package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Cloudinary resource classes. Audio lives under "video".
const (
	ResourceImage = "image"
	ResourceVideo = "video"
)

const (
	KindAudio  = "audio"
	KindCovers = "covers"
)

// Object is a stored file.
type Object struct {
	URL          string `json:"url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
}

// Storage stores release media under a per-user folder.
type Storage interface {
	UploadAudio(ctx context.Context, file io.Reader, userID uint, filename string) (*Object, error)
	UploadCover(ctx context.Context, file io.Reader, userID uint, filename string) (*Object, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
}

// Cover delivery transformation for fast frontend loading.
const (
	CoverWidth = 800
	coverEager = "q_auto,f_auto,w_800,c_fill"
)

var eagerAsyncFalse = false

// BuildCoverURL returns a delivery URL for a stored cover at the given width.
func BuildCoverURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = CoverWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_fill/%s",
		cloudName, width, publicID)
}

// Folder returns <root>/<user_id>/<kind>.
func Folder(root string, userID uint, kind string) string {
	if root == "" {
		root = "melodist"
	}
	return path.Join(root, strconv.FormatUint(uint64(userID), 10), kind)
}

// PublicID returns <unix_ms>_<slug> for an uploaded filename.
func PublicID(now time.Time, filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + slug(base)
}

func slug(s string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastSep = false
		case !lastSep:
			b.WriteByte('-')
			lastSep = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "file"
	}
	if len(out) > 64 {
		out = strings.TrimSuffix(out[:64], "-")
	}
	return out
}

type client struct {
	cloudName string
	root      string
	uploader  *uploader.API
	now       func() time.Time
}

// New builds a Storage from Cloudinary credentials. root is the top-level folder.
func New(cloudName, apiKey, apiSecret, root string) (Storage, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &client{cloudName: cloudName, root: root, uploader: up, now: time.Now}, nil
}

func (c *client) UploadAudio(ctx context.Context, file io.Reader, userID uint, filename string) (*Object, error) {
	return c.upload(ctx, file, uploader.UploadParams{
		Folder:       Folder(c.root, userID, KindAudio),
		PublicID:     PublicID(c.now(), filename),
		ResourceType: ResourceVideo,
	})
}

// UploadCover stores the original and returns the URL of the eager 800px rendition.
func (c *client) UploadCover(ctx context.Context, file io.Reader, userID uint, filename string) (*Object, error) {
	obj, err := c.upload(ctx, file, uploader.UploadParams{
		Folder:       Folder(c.root, userID, KindCovers),
		PublicID:     PublicID(c.now(), filename),
		ResourceType: ResourceImage,
		Eager:        coverEager,
		EagerAsync:   &eagerAsyncFalse,
	})
	if err != nil {
		return nil, err
	}
	obj.URL = BuildCoverURL(c.cloudName, obj.PublicID, CoverWidth)
	return obj, nil
}

func (c *client) upload(ctx context.Context, file io.Reader, params uploader.UploadParams) (*Object, error) {
	result, err := c.uploader.Upload(ctx, file, params)
	if err != nil {
		return nil, err
	}
	if result.Error.Message != "" {
		return nil, errors.New("cloudinary: " + result.Error.Message)
	}
	return &Object{URL: result.SecureURL, PublicID: result.PublicID, ResourceType: params.ResourceType}, nil
}

// Destroy removes an object. Missing objects are not an error.
func (c *client) Destroy(ctx context.Context, publicID, resourceType string) error {
	if publicID == "" {
		return nil
	}
	invalidate := true
	result, err := c.uploader.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Invalidate:   &invalidate,
	})
	if err != nil {
		return err
	}
	if result.Error.Message != "" {
		return errors.New("cloudinary: " + result.Error.Message)
	}
	return nil
}

// ErrNotConfigured is returned by the storage used when no credentials are set.
var ErrNotConfigured = errors.New("media storage is not configured")

type disabled struct{}

// Disabled returns a Storage that refuses uploads. Destroy is a no-op.
func Disabled() Storage { return disabled{} }

func (disabled) UploadAudio(context.Context, io.Reader, uint, string) (*Object, error) {
	return nil, ErrNotConfigured
}

func (disabled) UploadCover(context.Context, io.Reader, uint, string) (*Object, error) {
	return nil, ErrNotConfigured
}

func (disabled) Destroy(context.Context, string, string) error { return nil }
