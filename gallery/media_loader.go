package gallery

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"github.com/alexballas/mediagrid/catalog"
	"golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"
)

const (
	maxPendingThumbnails = 100
	// fullCacheEntries bounds the decoded full resolution images kept in memory.
	fullCacheEntries = 24
	cacheKeyPrefix   = 32 * 1024
)

var errUnsupportedMedia = errors.New("unsupported media")

var durationRe = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.(\d{2})`)

type thumbnailRequest struct {
	ref      string
	callback func(image.Image)
}

// MediaLoader is the MediaSource for local files and http(s) references.
// Thumbnails are decoded by a small pool of LIFO workers so the most recently
// scrolled-to tiles load first; full resolution loads are de-duplicated.
type MediaLoader struct {
	cfg LoaderConfig

	thumbs   sync.Map // map[string]image.Image
	requests []thumbnailRequest
	reqLock  sync.Mutex
	reqCond  *sync.Cond
	closed   bool

	fullLock  sync.Mutex
	fulls     map[string]image.Image
	fullOrder []string
	group     singleflight.Group

	ffmpegLock sync.RWMutex
	ffmpegPath string
	cacheDir   string

	client  *http.Client
	deliver func(func())
}

// NewMediaLoader starts cfg.Workers thumbnail workers. Call Close to stop them.
func NewMediaLoader(cfg LoaderConfig) *MediaLoader {
	ffmpeg := cfg.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if app := fyne.CurrentApp(); app != nil {
		if pref := app.Preferences().String(ffmpegPathKey); pref != "" {
			ffmpeg = pref
		}
	}

	m := &MediaLoader{
		cfg:        cfg,
		requests:   make([]thumbnailRequest, 0, maxPendingThumbnails),
		fulls:      make(map[string]image.Image),
		ffmpegPath: ffmpeg,
		client:     &http.Client{Timeout: 30 * time.Second},
		deliver:    fyne.Do,
	}
	m.reqCond = sync.NewCond(&m.reqLock)

	m.cacheDir = cfg.CacheDir
	if m.cacheDir == "" {
		if userCache, err := os.UserCacheDir(); err == nil {
			m.cacheDir = filepath.Join(userCache, "mediagrid")
		}
	}
	if m.cacheDir != "" {
		if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
			fyne.LogError("Unable to create thumbnail cache", err)
			m.cacheDir = ""
		} else {
			go m.cleanupCache()
		}
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for range workers {
		go m.worker()
	}
	return m
}

// Close stops the workers. Pending requests are dropped.
func (m *MediaLoader) Close() {
	m.reqLock.Lock()
	m.closed = true
	m.requests = nil
	m.reqCond.Broadcast()
	m.reqLock.Unlock()
}

func (m *MediaLoader) SetFFmpegPath(path string) {
	m.ffmpegLock.Lock()
	m.ffmpegPath = path
	m.ffmpegLock.Unlock()
	if app := fyne.CurrentApp(); app != nil {
		app.Preferences().SetString(ffmpegPathKey, path)
	}
}

func (m *MediaLoader) ffmpeg() string {
	m.ffmpegLock.RLock()
	defer m.ffmpegLock.RUnlock()
	return m.ffmpegPath
}

// Thumbnail loads the letterboxed thumbnail of item.
func (m *MediaLoader) Thumbnail(item catalog.Item, done func(image.Image)) {
	ref := item.Thumbnail
	if ref == "" {
		return
	}
	if cached, ok := m.thumbs.Load(ref); ok {
		done(cached.(image.Image))
		return
	}

	// If queue is full, drop the oldest request; the newest are the ones on screen.
	m.reqLock.Lock()
	if m.closed {
		m.reqLock.Unlock()
		return
	}
	if len(m.requests) >= maxPendingThumbnails {
		m.requests = m.requests[1:]
	}
	m.requests = append(m.requests, thumbnailRequest{ref: ref, callback: done})
	m.reqCond.Signal()
	m.reqLock.Unlock()
}

// Full loads item's full resolution image, scaled to the configured bound.
func (m *MediaLoader) Full(item catalog.Item, done func(image.Image)) {
	ref := item.Full
	if ref == "" {
		return
	}
	if img := m.cachedFull(ref); img != nil {
		done(img)
		return
	}
	go func() {
		img, err := m.loadFull(ref)
		if err != nil {
			fyne.LogError("Unable to load "+ref, err)
			return
		}
		m.deliver(func() { done(img) })
	}()
}

// Preload decodes item's full resolution image into memory in the background.
func (m *MediaLoader) Preload(item catalog.Item) {
	ref := item.Full
	if ref == "" || m.cachedFull(ref) != nil {
		return
	}
	go func() {
		if _, err := m.loadFull(ref); err != nil {
			fyne.LogError("Unable to preload "+ref, err)
		}
	}()
}

func (m *MediaLoader) cachedFull(ref string) image.Image {
	m.fullLock.Lock()
	defer m.fullLock.Unlock()
	return m.fulls[ref]
}

func (m *MediaLoader) storeFull(ref string, img image.Image) {
	m.fullLock.Lock()
	defer m.fullLock.Unlock()
	if _, ok := m.fulls[ref]; ok {
		return
	}
	if len(m.fullOrder) >= fullCacheEntries {
		delete(m.fulls, m.fullOrder[0])
		m.fullOrder = m.fullOrder[1:]
	}
	m.fulls[ref] = img
	m.fullOrder = append(m.fullOrder, ref)
}

// loadFull decodes ref once, however many tiles ask for it at the same time.
func (m *MediaLoader) loadFull(ref string) (image.Image, error) {
	v, err, _ := m.group.Do(ref, func() (any, error) {
		if img := m.cachedFull(ref); img != nil {
			return img, nil
		}
		img, err := m.decode(ref)
		if err != nil {
			return nil, err
		}
		img = fitWithin(img, m.cfg.FullMaxSize)
		m.storeFull(ref, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (m *MediaLoader) worker() {
	for {
		m.reqLock.Lock()
		for len(m.requests) == 0 && !m.closed {
			m.reqCond.Wait()
		}
		if m.closed {
			m.reqLock.Unlock()
			return
		}
		// Pop the newest request.
		lastIdx := len(m.requests) - 1
		req := m.requests[lastIdx]
		m.requests = m.requests[:lastIdx]
		m.reqLock.Unlock()

		img, err := m.thumbnail(req.ref)
		if err != nil {
			fyne.LogError("Unable to create thumbnail for "+req.ref, err)
			continue
		}
		m.deliver(func() { req.callback(img) })
	}
}

func (m *MediaLoader) thumbnail(ref string) (image.Image, error) {
	if cached, ok := m.thumbs.Load(ref); ok {
		return cached.(image.Image), nil
	}

	local := !isRemote(ref)
	var cachePath string
	if local && m.cacheDir != "" {
		if key, err := m.generateCacheKey(ref); err == nil {
			cachePath = filepath.Join(m.cacheDir, key+".jpg")
			if img, err := loadImage(cachePath); err == nil {
				m.thumbs.Store(ref, img)
				return img, nil
			}
		}
	}

	src, err := m.decode(ref)
	if err != nil {
		return nil, err
	}
	dst := letterbox(src, m.cfg.ThumbnailSize)
	if dst == nil {
		return nil, fmt.Errorf("%s: empty image", ref)
	}
	m.thumbs.Store(ref, dst)

	if cachePath != "" {
		if err := saveJPEG(cachePath, dst); err != nil {
			fyne.LogError("Unable to write thumbnail cache", err)
		}
	}
	return dst, nil
}

// decode reads ref from disk, over http, or as a video frame through ffmpeg.
func (m *MediaLoader) decode(ref string) (image.Image, error) {
	if isRemote(ref) {
		return m.fetch(ref)
	}
	ext := strings.ToLower(filepath.Ext(ref))
	switch {
	case catalog.IsSupportedImage(ext):
		return loadImage(ref)
	case catalog.IsSupportedVideo(ext):
		return m.generateVideoThumbnail(ref)
	}
	return nil, fmt.Errorf("%s: %w", ref, errUnsupportedMedia)
}

func (m *MediaLoader) fetch(ref string) (image.Image, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", ref, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	return img, nil
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func saveJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// letterbox scales src into a size x size square on black, keeping its aspect ratio.
func letterbox(src image.Image, size int) *image.RGBA {
	srcBounds := src.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()
	if srcW == 0 || srcH == 0 || size <= 0 {
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{image.Black}, image.Point{}, draw.Src)

	var scaledW, scaledH int
	ratio := float64(srcW) / float64(srcH)
	if ratio > 1 {
		scaledW = size
		scaledH = int(float64(size) / ratio)
	} else {
		scaledH = size
		scaledW = int(float64(size) * ratio)
	}

	xBase := (size - scaledW) / 2
	yBase := (size - scaledH) / 2
	targetRect := image.Rect(xBase, yBase, xBase+scaledW, yBase+scaledH)

	draw.ApproxBiLinear.Scale(dst, targetRect, src, srcBounds, draw.Over, nil)
	return dst
}

// fitWithin scales src down so neither side exceeds bound. Smaller images are
// returned unchanged.
func fitWithin(src image.Image, bound int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if bound <= 0 || (w <= bound && h <= bound) || w == 0 || h == 0 {
		return src
	}
	if w >= h {
		h = h * bound / w
		w = bound
	} else {
		w = w * bound / h
		h = bound
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func (m *MediaLoader) generateVideoThumbnail(path string) (image.Image, error) {
	duration, err := m.getVideoDuration(path)
	if err != nil {
		duration = time.Second
	}

	// Grab the frame from the middle of the clip.
	seekTime := duration / 2
	seekStr := fmt.Sprintf("%02d:%02d:%02d.%03d",
		int(seekTime.Hours()),
		int(seekTime.Minutes())%60,
		int(seekTime.Seconds())%60,
		seekTime.Milliseconds()%1000)

	// -ss before -i seeks the input, which is less accurate but much faster.
	cmd := exec.Command(m.ffmpeg(), "-ss", seekStr, "-i", path, "-vframes", "1", "-f", "image2", "-strict", "unofficial", "-")
	applyHiddenWindow(cmd)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg %s: %w", path, err)
	}

	img, _, err := image.Decode(&buf)
	return img, err
}

func (m *MediaLoader) getVideoDuration(path string) (time.Duration, error) {
	cmd := exec.Command(m.ffmpeg(), "-i", path)
	applyHiddenWindow(cmd)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// ffmpeg exits non-zero without an output file but still prints the stream info.
	_ = cmd.Run()

	return parseDuration(stderr.String())
}

func parseDuration(out string) (time.Duration, error) {
	matches := durationRe.FindStringSubmatch(out)
	if len(matches) < 5 {
		return 0, errors.New("could not find duration in output")
	}

	var hours, minutes, seconds, centiseconds int
	fmt.Sscanf(matches[1], "%d", &hours)
	fmt.Sscanf(matches[2], "%d", &minutes)
	fmt.Sscanf(matches[3], "%d", &seconds)
	fmt.Sscanf(matches[4], "%d", &centiseconds)

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centiseconds*10)*time.Millisecond, nil
}

// generateCacheKey hashes the path, modification time, size and the first
// 32KB of the file.
func (m *MediaLoader) generateCacheKey(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(absPath))
	h.Write([]byte(info.ModTime().String()))
	fmt.Fprintf(h, "%d", info.Size())
	fmt.Fprintf(h, "%d", m.cfg.ThumbnailSize)

	f, err := os.Open(absPath)
	if err == nil {
		defer f.Close()
		buf := make([]byte, cacheKeyPrefix)
		n, _ := f.Read(buf)
		h.Write(buf[:n])
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// cleanupCache evicts the least recently written thumbnails once the cache
// exceeds its limits, down to 80% of them.
func (m *MediaLoader) cleanupCache() {
	if m.cacheDir == "" {
		return
	}

	files, err := os.ReadDir(m.cacheDir)
	if err != nil {
		return
	}

	type fileInfo struct {
		name string
		size int64
		time time.Time
	}

	var cachedFiles []fileInfo
	var totalSize int64

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".jpg" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		cachedFiles = append(cachedFiles, fileInfo{
			name: f.Name(),
			size: info.Size(),
			time: info.ModTime(),
		})
		totalSize += info.Size()
	}

	maxSize := m.cfg.MaxCacheMB * 1024 * 1024
	maxFiles := m.cfg.MaxCacheFiles
	if totalSize <= maxSize && len(cachedFiles) <= maxFiles {
		return
	}

	sort.Slice(cachedFiles, func(i, j int) bool {
		return cachedFiles[i].time.Before(cachedFiles[j].time)
	})

	for _, f := range cachedFiles {
		if totalSize <= int64(float64(maxSize)*0.8) && len(cachedFiles) <= int(float64(maxFiles)*0.8) {
			break
		}
		_ = os.Remove(filepath.Join(m.cacheDir, f.name))
		totalSize -= f.size
		cachedFiles = cachedFiles[1:]
	}
}
