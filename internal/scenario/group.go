package scenario

// group starts every child without waiting and finishes once all have.
type group struct{}

func (group) schedule(p *ProcessAction) {
	outstanding := len(p.children)
	if outstanding == 0 {
		p.Finish()
		return
	}
	for _, child := range p.children {
		child.OnFinish(func() {
			outstanding--
			if outstanding == 0 {
				p.Finish()
			}
		})
		launch(child, p.scope)
	}
}
