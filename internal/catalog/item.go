// Package catalog persists the launcher's items (apps, folders and
// components) in SQLite and resolves them to something the host can open.
package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("catalog: item not found")
	ErrInvalidType = errors.New("catalog: invalid item type")
	ErrNoTarget    = errors.New("catalog: item has no launch target")
)

// ItemType is the kind of launcher entry. The empty type is allowed and
// displays as "Unknown".
type ItemType string

const (
	TypeApp       ItemType = "app"
	TypeFolder    ItemType = "folder"
	TypeComponent ItemType = "component"
)

// ParseItemType normalises s to an ItemType.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeApp, TypeFolder, TypeComponent, "":
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Item is one launcher entry.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Type      ItemType  `json:"type"`
	Name      string    `json:"name"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
}

// DisplayType is the label shown on the item tile.
func (it Item) DisplayType() string {
	switch it.Type {
	case TypeApp:
		return "App"
	case TypeFolder:
		return "Folder"
	case TypeComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// DisplayName is the name shown on the item tile.
func (it Item) DisplayName() string {
	if strings.TrimSpace(it.Name) == "" {
		return "Unnamed"
	}
	return it.Name
}

// LaunchURL converts the item's target into a URL the host can open.
// http(s) and other absolute URLs pass through; paths become file URIs.
func LaunchURL(it Item) (string, error) {
	target := strings.TrimSpace(it.Target)
	if target == "" {
		return "", ErrNoTarget
	}
	if u, err := url.Parse(target); err == nil && len(u.Scheme) > 1 && u.Opaque == "" && (u.Host != "" || u.Scheme == "file") {
		return u.String(), nil
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}
	return fileURI(abs), nil
}

func fileURI(path string) string {
	clean := filepath.ToSlash(path)
	if runtime.GOOS == "windows" && len(clean) > 0 && clean[0] != '/' {
		clean = "/" + clean
	}

	u := url.URL{Scheme: "file", Path: clean}
	return u.String()
}
