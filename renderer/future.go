package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atlasdatatech/maprender/theme"
	log "github.com/sirupsen/logrus"
)

//ErrNoTheme 主题不可用
var ErrNoTheme = errors.New("renderer: no theme available")

// ThemeFuture loads a render theme once in the background and shares it
// between jobs. Every job holds a reference while it renders; the theme
// is destroyed after Close once the last reference is released.
type ThemeFuture struct {
	id   string
	done chan struct{}
	t    *theme.RenderTheme
	err  error

	mu        sync.Mutex
	refs      int
	closed    bool
	destroyed bool
}

// NewThemeFuture starts load. id names the theme in tile cache keys.
func NewThemeFuture(id string, load func() (*theme.RenderTheme, error)) *ThemeFuture {
	f := &ThemeFuture{id: id, done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.t, f.err = nil, fmt.Errorf("theme %s: panic: %v", id, r)
			}
		}()
		f.t, f.err = load()
		if f.err != nil {
			log.Errorf("theme %s: %v", id, f.err)
		}
	}()
	return f
}

//ID 主题标识
func (f *ThemeFuture) ID() string {
	return f.id
}

//Done 加载完成
func (f *ThemeFuture) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Acquire waits for the theme and takes a reference. The returned release
// must be called exactly once when err is nil.
func (f *ThemeFuture) Acquire(ctx context.Context) (*theme.RenderTheme, func(), error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s closed", ErrNoTheme, f.id)
	}
	f.refs++
	f.mu.Unlock()

	select {
	case <-f.done:
	case <-ctx.Done():
		f.release()
		return nil, nil, ctx.Err()
	}
	if f.err != nil {
		f.release()
		return nil, nil, fmt.Errorf("%w: %v", ErrNoTheme, f.err)
	}
	var once sync.Once
	return f.t, func() { once.Do(f.release) }, nil
}

func (f *ThemeFuture) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs--
	f.destroyIfUnused()
}

// Close drops the owner's interest. Jobs holding a reference finish with
// the theme; new ones get ErrNoTheme.
func (f *ThemeFuture) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.destroyIfUnused()
}

func (f *ThemeFuture) destroyIfUnused() {
	if !f.closed || f.refs > 0 || f.destroyed {
		return
	}
	f.destroyed = true
	go func() {
		<-f.done
		if f.t != nil {
			f.t.Destroy()
			log.Debugf("theme %s destroyed", f.id)
		}
	}()
}

//Destroyed 是否已销毁
func (f *ThemeFuture) Destroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}
