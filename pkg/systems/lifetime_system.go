package systems

import (
	"github.com/decker502/netbattle/pkg/components"
	"github.com/decker502/netbattle/pkg/ecs"
)

// LifetimeSystem 到期的限时实体标记删除
type LifetimeSystem struct {
	entityManager *ecs.EntityManager

	// OnExpire 实体到期并被标记删除时回调（可选）
	OnExpire func(id ecs.EntityID)
}

// NewLifetimeSystem 创建生命周期系统
func NewLifetimeSystem(em *ecs.EntityManager) *LifetimeSystem {
	return &LifetimeSystem{entityManager: em}
}

// Update 推进计时；已标记删除的实体跳过，每个实体只到期一次
func (s *LifetimeSystem) Update(deltaTime float64) {
	em := s.entityManager
	for _, id := range ecs.GetEntitiesWith1[*components.LifetimeComponent](em) {
		if em.IsMarkedForDestroy(id) {
			continue
		}
		lifetime, _ := ecs.GetComponent[*components.LifetimeComponent](em, id)
		lifetime.Elapsed += deltaTime
		if !lifetime.Expired() {
			continue
		}
		em.DestroyEntity(id)
		if s.OnExpire != nil {
			s.OnExpire(id)
		}
	}
}
