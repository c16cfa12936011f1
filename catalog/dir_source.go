package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"github.com/FyshOS/fancyfs"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of filesystem events (copying a batch of photos
// produces one event per file).
const watchDebounce = 250 * time.Millisecond

// DirSource lists the media files of a single local directory.
type DirSource struct {
	Root       string
	ShowHidden bool
}

// NewDirSource returns a Source backed by the directory at root.
func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

func (d *DirSource) List(ctx context.Context) ([]Item, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", d.Root, err)
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if !d.ShowHidden && isHidden(name) {
			continue
		}
		path := filepath.Join(d.Root, name)

		if e.IsDir() {
			items = append(items, folderItem(name, path))
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case IsSupportedImage(ext):
			items = append(items, Item{ID: name, Thumbnail: path, Full: path})
		case IsSupportedVideo(ext):
			// Videos have no full resolution still; the thumbnail is a decoded frame.
			items = append(items, Item{ID: name, Thumbnail: path, Video: true})
		}
	}

	sortItems(items)
	return items, nil
}

func folderItem(name, path string) Item {
	it := Item{ID: name, Folder: true}
	details, err := fancyfs.DetailsForFolder(storage.NewFileURI(path))
	if err == nil && details != nil && details.BackgroundURI != nil {
		it.Thumbnail = details.BackgroundURI.Path()
	}
	return it
}

func (d *DirSource) Detail(ctx context.Context, id string) (Detail, error) {
	if err := ctx.Err(); err != nil {
		return Detail{}, err
	}
	if id == "" || strings.ContainsRune(id, os.PathSeparator) || id == ".." {
		return Detail{}, ErrNotFound
	}

	path := filepath.Join(d.Root, id)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Detail{}, ErrNotFound
	}
	if err != nil {
		return Detail{}, fmt.Errorf("stat %s: %w", path, err)
	}

	var item Item
	if info.IsDir() {
		item = folderItem(id, path)
	} else {
		ext := strings.ToLower(filepath.Ext(id))
		item = Item{ID: id, Thumbnail: path}
		if IsSupportedImage(ext) {
			item.Full = path
		} else if IsSupportedVideo(ext) {
			item.Video = true
		} else {
			return Detail{}, ErrNotFound
		}
	}

	return Detail{
		Item:     item,
		Size:     info.Size(),
		Modified: info.ModTime(),
		Extra: map[string]string{
			"path": path,
			"mode": info.Mode().String(),
		},
	}, nil
}

// Watch re-lists the directory whenever its contents change and hands the new
// list to onChange. It blocks until ctx is done.
func (d *DirSource) Watch(ctx context.Context, onChange func([]Item)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(d.Root); err != nil {
		return fmt.Errorf("watch %s: %w", d.Root, err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	relist := func() { d.relist(ctx, onChange) }
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, relist)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fyne.LogError("Directory watcher error", err)
		}
	}
}

// relist lists the directory and reports it, unless ctx ended meanwhile.
func (d *DirSource) relist(ctx context.Context, onChange func([]Item)) {
	items, err := d.List(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		fyne.LogError("Failed to re-list "+d.Root, err)
		return
	}
	onChange(items)
}

func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Folder != items[j].Folder {
			return items[i].Folder
		}
		return strings.ToLower(items[i].ID) < strings.ToLower(items[j].ID)
	})
}

func isHidden(name string) bool {
	return name == "" || name[0] == '.'
}

// IsSupportedImage reports whether ext (lower case, with dot) is a decodable still image.
func IsSupportedImage(ext string) bool {
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png"
}

// IsSupportedVideo reports whether ext (lower case, with dot) is a video thumbnailed via ffmpeg.
func IsSupportedVideo(ext string) bool {
	return ext == ".mp4" || ext == ".mkv" || ext == ".avi" || ext == ".webm" || ext == ".mov"
}
