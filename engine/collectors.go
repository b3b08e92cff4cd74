package engine

import "fmt"

// Keyboard accepts a key press whose name is in the acceptance set.
type Keyboard struct {
	*Collector
}

func NewKeyboard(s *Session, cfg CollectorConfig) *Keyboard {
	k := &Keyboard{}
	k.Collector = newCollector(s, cfg, k, "keyboard")
	return k
}

func (k *Keyboard) handleEvent(ev Event) (bool, error) {
	if ev.Kind != KeyDown || !k.accepts(ev.Value) {
		return false, nil
	}
	k.accept(ev.Value, ev.Time)
	k.session.Tracker.SendMessage(k.Name() + ".END_RT")
	k.Stop()
	return true, nil
}

// ButtonPanel accepts a button press from a response box. The press is the
// accepted response; the matching release, possibly arriving in a later tick
// or in the presentation's final drain, records the response offset and
// terminates the collector.
type ButtonPanel struct {
	*Collector
}

func NewButtonPanel(s *Session, cfg CollectorConfig) *ButtonPanel {
	b := &ButtonPanel{}
	b.Collector = newCollector(s, cfg, b, "buttons")
	return b
}

func (b *ButtonPanel) handleEvent(ev Event) (bool, error) {
	switch ev.Kind {
	case ButtonDown:
		if !b.accepts(ev.Value) {
			return false, nil
		}
		b.accept(ev.Value, ev.Time)
		b.sendEndRT(ev.Time)
		return true, nil
	case ButtonUp:
		if b.hasResp && ev.Value == b.resp {
			b.acceptOffset(ev.Time)
			b.session.Tracker.SendMessage(fmt.Sprintf("%d %s.offset",
				int64(ev.Time)-int64(b.session.Clock.Now()), b.Name()))
			b.Stop()
		}
	}
	return false, nil
}

// sendEndRT annotates the recorder with the offset between the response
// timestamp and the moment the message is sent, so the annotation can be
// shifted back onto the true response time.
func (b *ButtonPanel) sendEndRT(rtTime uint64) {
	b.session.Tracker.SendMessage(fmt.Sprintf("%d %s.END_RT",
		int64(rtTime)-int64(b.session.Clock.Now()), b.Name()))
}

// PointerClick accepts a press-and-release of a pointer button inside one of
// the configured areas. The press arms the target and records the reaction
// time; the release inside the same area confirms it.
type PointerClick struct {
	*Collector
	armed *ClickTarget
}

func NewPointerClick(s *Session, cfg CollectorConfig) *PointerClick {
	p := &PointerClick{}
	p.Collector = newCollector(s, cfg, p, "pointer")
	return p
}

func (p *PointerClick) handleEvent(ev Event) (bool, error) {
	switch ev.Kind {
	case PointerDown:
		for i := range p.cfg.Targets {
			t := &p.cfg.Targets[i]
			if t.Button == ev.Value && t.Area.Contains(ev.X, ev.Y) {
				p.armed = t
				p.accept(t.Button+" "+t.Area.Label(), ev.Time)
				break
			}
		}
	case PointerUp:
		if p.armed != nil && p.armed.Button == ev.Value && p.armed.Area.Contains(ev.X, ev.Y) {
			p.acceptOffset(ev.Time)
			p.Stop()
			return true, nil
		}
	}
	return false, nil
}

// PointerDownUp accepts a full press-and-release of a pointer button named in
// the acceptance set, anywhere on screen.
type PointerDownUp struct {
	*Collector
	pressed map[string]bool
}

func NewPointerDownUp(s *Session, cfg CollectorConfig) *PointerDownUp {
	p := &PointerDownUp{pressed: make(map[string]bool)}
	p.Collector = newCollector(s, cfg, p, "pointer")
	return p
}

func (p *PointerDownUp) handleEvent(ev Event) (bool, error) {
	switch ev.Kind {
	case PointerDown:
		p.pressed[ev.Value] = true
	case PointerUp:
		if p.pressed[ev.Value] && p.accepts(ev.Value) {
			p.accept(ev.Value, ev.Time)
			p.Stop()
			return true, nil
		}
	}
	return false, nil
}

// Speech accepts a recognized word from the speech feed. The collector stays
// active after acceptance until stopped, so a recognizer reporting the word's
// offset later can still be folded in by the caller.
type Speech struct {
	*Collector
}

func NewSpeech(s *Session, cfg CollectorConfig) *Speech {
	sp := &Speech{}
	sp.Collector = newCollector(s, cfg, sp, "speech")
	return sp
}

func (sp *Speech) handleEvent(ev Event) (bool, error) {
	if ev.Kind != SpeechWord || !sp.accepts(ev.Value) {
		return false, nil
	}
	sp.accept(ev.Value, ev.Time)
	sp.session.Tracker.SendMessage(fmt.Sprintf("%d %s.END_RT",
		int64(ev.Time)-int64(sp.session.Clock.Now()), sp.Name()))
	return true, nil
}
