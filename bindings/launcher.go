package bindings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/MJE43/everything-launcher/internal/catalog"
)

// LauncherModule is the Wails-bound surface over the item catalog.
type LauncherModule struct {
	ctx    context.Context
	store  *catalog.Store
	logger zerolog.Logger
	open   func(ctx context.Context, url string)
}

// ItemView is the frontend-facing item with display fallbacks applied.
type ItemView struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Target      string    `json:"target"`
	DisplayType string    `json:"displayType"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ItemsPage is one page of catalog items.
type ItemsPage struct {
	Items      []ItemView `json:"items"`
	TotalCount int        `json:"totalCount"`
}

// NewLauncherModule binds the module to an open catalog store.
func NewLauncherModule(store *catalog.Store, logger zerolog.Logger) *LauncherModule {
	return &LauncherModule{
		store:  store,
		logger: logger.With().Str("component", "launcher").Logger(),
		open:   wruntime.BrowserOpenURL,
	}
}

// Startup is called by Wails on application startup.
func (m *LauncherModule) Startup(ctx context.Context) {
	m.ctx = ctx
}

func (m *LauncherModule) context() context.Context {
	if m.ctx == nil {
		return context.Background()
	}
	return m.ctx
}

// ListItems returns items newest first. limit is bounded by
// catalog.MaxListLimit.
func (m *LauncherModule) ListItems(limit, offset int) (ItemsPage, error) {
	if offset < 0 {
		offset = 0
	}
	items, total, err := m.store.List(m.context(), limit, offset)
	if err != nil {
		return ItemsPage{}, err
	}
	return ItemsPage{
		Items:      lo.Map(items, func(it catalog.Item, _ int) ItemView { return toView(it) }),
		TotalCount: total,
	}, nil
}

// CreateItem adds an item. itemType is one of app, folder or component.
func (m *LauncherModule) CreateItem(itemType, name, target string) (ItemView, error) {
	t, err := catalog.ParseItemType(itemType)
	if err != nil {
		return ItemView{}, err
	}
	it, err := m.store.Create(m.context(), catalog.Item{Type: t, Name: name, Target: target})
	if err != nil {
		return ItemView{}, err
	}
	m.logger.Info().Str("item_id", it.ID.String()).Str("type", string(it.Type)).Msg("item created")
	return toView(it), nil
}

// RenameItem changes an item's name.
func (m *LauncherModule) RenameItem(id, name string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	return m.store.Rename(m.context(), uid, name)
}

// DeleteItem removes an item.
func (m *LauncherModule) DeleteItem(id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := m.store.Delete(m.context(), uid); err != nil {
		return err
	}
	m.logger.Info().Str("item_id", id).Msg("item deleted")
	return nil
}

// LaunchItem opens the item's target with the host and returns the URL used.
func (m *LauncherModule) LaunchItem(id string) (string, error) {
	uid, err := parseID(id)
	if err != nil {
		return "", err
	}
	it, err := m.store.Get(m.context(), uid)
	if err != nil {
		return "", err
	}
	u, err := catalog.LaunchURL(it)
	if err != nil {
		return "", err
	}
	m.open(m.context(), u)
	m.logger.Debug().Str("item_id", id).Str("url", u).Msg("item launched")
	return u, nil
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid item id: %w", err)
	}
	return uid, nil
}

func toView(it catalog.Item) ItemView {
	return ItemView{
		ID:          it.ID.String(),
		Type:        string(it.Type),
		Name:        it.Name,
		Target:      it.Target,
		DisplayType: it.DisplayType(),
		DisplayName: it.DisplayName(),
		CreatedAt:   it.CreatedAt,
	}
}
