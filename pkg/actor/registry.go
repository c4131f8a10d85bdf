package actor

import (
	"github.com/duke-git/lancet/v2/maputil"
)

// registry 路径到 cell 的映射，LocalActorRef 通过它找到 cell
type registry struct {
	cells *maputil.ConcurrentMap[string, *actorCell]
}

func newRegistry() *registry {
	return &registry{
		cells: maputil.NewConcurrentMap[string, *actorCell](32),
	}
}

// add 路径已被占用时返回 false
func (r *registry) add(c *actorCell) bool {
	_, loaded := r.cells.GetOrSet(c.self.path.key, c)
	return !loaded
}

func (r *registry) get(key string) (*actorCell, bool) {
	return r.cells.Get(key)
}

// remove 只删除同一个化身
func (r *registry) remove(c *actorCell) {
	cur, ok := r.cells.Get(c.self.path.key)
	if !ok || cur != c {
		return
	}
	r.cells.Delete(c.self.path.key)
}

func (r *registry) count() int {
	n := 0
	r.cells.Range(func(string, *actorCell) bool {
		n++
		return true
	})
	return n
}
