package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/decker502/netbattle/internal/anim"
	"github.com/decker502/netbattle/pkg/embedded"
)

// AnimationLoader 读取动画资源文件
type AnimationLoader func(path string) ([]byte, error)

// AnimationLibrary 动画资源缓存（并发安全）
// 同一路径只解析一次，Reload 替换缓存中的文档
type AnimationLibrary struct {
	loader AnimationLoader
	docs   map[string]*anim.Document
	mu     sync.RWMutex
}

// NewAnimationLibrary 创建动画资源库
// loader 为 nil 时从嵌入资源读取
func NewAnimationLibrary(loader AnimationLoader) *AnimationLibrary {
	if loader == nil {
		loader = embedded.ReadFile
	}
	return &AnimationLibrary{
		loader: loader,
		docs:   make(map[string]*anim.Document),
	}
}

func normalizePath(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(path), "./")
}

// Load 返回缓存的文档，未缓存时加载
func (l *AnimationLibrary) Load(path string) (*anim.Document, error) {
	key := normalizePath(path)

	l.mu.RLock()
	doc, ok := l.docs[key]
	l.mu.RUnlock()
	if ok {
		return doc, nil
	}

	doc, err := l.parse(key)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// 并发加载时保留先写入的文档
	if existing, ok := l.docs[key]; ok {
		return existing, nil
	}
	l.docs[key] = doc
	return doc, nil
}

func (l *AnimationLibrary) parse(key string) (*anim.Document, error) {
	data, err := l.loader(key)
	if err != nil {
		return nil, fmt.Errorf("无法读取动画文件 %s: %w", key, err)
	}
	doc, err := anim.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("无法解析动画文件 %s: %w", key, err)
	}
	return doc, nil
}

// Reload 重新加载已缓存的文档
// 解析失败时保留旧文档并返回错误；未缓存的路径返回 (nil, nil)
// 已挂载旧文档的实体不受影响，新创建的实体使用新文档
func (l *AnimationLibrary) Reload(path string) (*anim.Document, error) {
	key := normalizePath(path)
	if !l.Has(key) {
		return nil, nil
	}

	doc, err := l.parse(key)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.docs[key] = doc
	l.mu.Unlock()
	log.Printf("[AnimationLibrary] 重新加载 %s (%d 个状态)", key, len(doc.States))
	return doc, nil
}

// Has 检查路径是否已缓存
func (l *AnimationLibrary) Has(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.docs[normalizePath(path)]
	return ok
}

// Paths 返回所有已缓存的路径（排序）
func (l *AnimationLibrary) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	paths := make([]string, 0, len(l.docs))
	for p := range l.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ApplyChanges 处理监视器已经发出的所有变更（不阻塞）
// 返回成功重新加载的动画路径，以及未处理的其他文件（脚本、未缓存的动画）
func (l *AnimationLibrary) ApplyChanges(w *AnimationWatcher) (reloaded []string, others []string) {
	if w == nil {
		return nil, nil
	}
	for {
		select {
		case name, ok := <-w.Events:
			if !ok {
				return reloaded, others
			}
			key := normalizePath(name)
			if !isAnimationFile(key) || !l.Has(key) {
				others = append(others, key)
				continue
			}
			if _, err := l.Reload(key); err != nil {
				log.Printf("[AnimationLibrary] 重新加载失败: %v", err)
				continue
			}
			reloaded = append(reloaded, key)
		default:
			return reloaded, others
		}
	}
}
