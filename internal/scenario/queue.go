package scenario

// queue starts child i+1 only after child i finished.
type queue struct{}

func (queue) schedule(p *ProcessAction) {
	var next func(i int)
	next = func(i int) {
		if i >= len(p.children) {
			p.Finish()
			return
		}
		child := p.children[i]
		child.OnFinish(func() { next(i + 1) })
		launch(child, p.scope)
	}
	next(0)
}
