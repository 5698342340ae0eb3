package engine

import (
	"lautenbacher.net/lumen/scene"
)

// SceneWriter is the single mutation path for the scene list. Every
// operation takes the scene lock for the duration of the change and raises
// the dirty flag so the worker re-snapshots; mutating scenes any other way
// would leave the worker rendering a stale copy forever.
type SceneWriter struct {
	engine *Engine
}

// SetScenes replaces the whole scene list. If the active index falls
// outside the new list it is reset to 0.
func (w *SceneWriter) SetScenes(scenes []scene.Scene) {
	e := w.engine
	e.mu.Lock()
	e.scenes = scenes
	if e.active >= len(scenes) {
		e.active = 0
	}
	e.mu.Unlock()
	e.dirty.Store(true)
}

// SetActiveScene selects which scene the worker renders. Out-of-range
// values are allowed and render as an empty scene.
func (w *SceneWriter) SetActiveScene(index int) {
	e := w.engine
	e.mu.Lock()
	e.active = index
	e.mu.Unlock()
	e.dirty.Store(true)
}

// AppendScene adds a scene at the end of the list.
func (w *SceneWriter) AppendScene(s scene.Scene) {
	e := w.engine
	e.mu.Lock()
	e.scenes = append(e.scenes, s)
	e.mu.Unlock()
	e.dirty.Store(true)
}

// ReplaceScene swaps out the scene at index. Out-of-range indices are
// ignored.
func (w *SceneWriter) ReplaceScene(index int, s scene.Scene) {
	e := w.engine
	e.mu.Lock()
	if index >= 0 && index < len(e.scenes) {
		e.scenes[index] = s
	}
	e.mu.Unlock()
	e.dirty.Store(true)
}

// RemoveScene deletes the scene at index. Out-of-range indices are
// ignored.
func (w *SceneWriter) RemoveScene(index int) {
	e := w.engine
	e.mu.Lock()
	if index >= 0 && index < len(e.scenes) {
		e.scenes = append(e.scenes[:index], e.scenes[index+1:]...)
		if e.active >= len(e.scenes) {
			e.active = 0
		}
	}
	e.mu.Unlock()
	e.dirty.Store(true)
}
