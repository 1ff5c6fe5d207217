package system

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncruces/zenity"

	apperrors "recprefs/internal/errors"
	"recprefs/internal/settings"
)

// SelectDirectory shows a folder chooser starting at start and returns the choice
type SelectDirectory func(ctx context.Context, title, start string) (string, error)

// ZenitySelectDirectory uses the native folder dialog
func ZenitySelectDirectory(ctx context.Context, title, start string) (string, error) {
	return zenity.SelectFile(
		zenity.Context(ctx),
		zenity.Title(title),
		zenity.Directory(),
		zenity.Filename(start),
	)
}

// DirectoryPicker lets the user choose the recordings folder
type DirectoryPicker struct {
	store  *settings.Store
	choose SelectDirectory
}

func NewDirectoryPicker(store *settings.Store, choose SelectDirectory) *DirectoryPicker {
	if choose == nil {
		choose = ZenitySelectDirectory
	}
	return &DirectoryPicker{store: store, choose: choose}
}

// Pick opens the chooser at the current folder and stores the selection.
// Cancelling returns ErrCancelled and leaves the setting untouched. A
// persistence warning is returned together with the applied path.
func (p *DirectoryPicker) Pick(ctx context.Context) (string, error) {
	path, err := p.choose(ctx, "Select the folder recordings are saved to", p.store.SaveDirectory())
	if errors.Is(err, zenity.ErrCanceled) || errors.Is(err, context.Canceled) {
		return "", apperrors.ErrCancelled
	}
	if err != nil {
		return "", apperrors.Wrap(fmt.Errorf("open folder dialog: %w", err),
			"The folder dialog could not be opened.", true)
	}
	if path == "" {
		return "", apperrors.ErrCancelled
	}

	if err := p.store.Set(settings.KeySaveDirectory, path); err != nil {
		if apperrors.IsWarning(err) {
			return p.store.SaveDirectory(), err
		}
		return "", err
	}
	return p.store.SaveDirectory(), nil
}
