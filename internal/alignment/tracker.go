package alignment

// Tracker 记录一次解析中目标的两种呈现方式：
// linked 是已作为对齐内容嵌入上级的目标，placed 是已作为独立节点放在部门/个人分支下的目标。
// 两个集合始终不相交，且只在单次解析内有效。
type Tracker struct {
	linked map[uint]struct{}
	placed map[uint]struct{}
}

// NewTracker 创建一个空的 Tracker。
func NewTracker() *Tracker {
	return &Tracker{
		linked: make(map[uint]struct{}),
		placed: make(map[uint]struct{}),
	}
}

// Link 标记目标已嵌入上级。目标已被独立放置时拒绝并返回 false。
func (t *Tracker) Link(id uint) bool {
	if _, ok := t.placed[id]; ok {
		return false
	}
	t.linked[id] = struct{}{}
	return true
}

// Place 标记目标已独立放置。目标已被嵌入上级时拒绝并返回 false。
func (t *Tracker) Place(id uint) bool {
	if _, ok := t.linked[id]; ok {
		return false
	}
	t.placed[id] = struct{}{}
	return true
}

func (t *Tracker) IsLinked(id uint) bool {
	_, ok := t.linked[id]
	return ok
}

func (t *Tracker) IsPlaced(id uint) bool {
	_, ok := t.placed[id]
	return ok
}

// Linked 返回已嵌入的目标 ID，升序。
func (t *Tracker) Linked() []uint {
	return sortedIDs(t.linked)
}

// Placed 返回已独立放置的目标 ID，升序。
func (t *Tracker) Placed() []uint {
	return sortedIDs(t.placed)
}
