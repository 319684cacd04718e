package core

// probe is a test event that records every activation into a shared log.
type probe struct {
	name  string
	ret   bool
	calls int
	log   *[]string
	hook  func()
}

func newProbe(name string, ret bool, log *[]string) *probe {
	return &probe{name: name, ret: ret, log: log}
}

func (p *probe) OnActivate() bool {
	p.calls++
	if p.log != nil {
		*p.log = append(*p.log, p.name)
	}
	if p.hook != nil {
		p.hook()
	}
	return p.ret
}

// valueEvent is a non-pointer Event used to exercise the identity check.
type valueEvent struct{}

func (valueEvent) OnActivate() bool { return true }
