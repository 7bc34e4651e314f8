package app

// fixedDT is the headless step, one target frame.
func (a *App) fixedDT() float64 {
	fps := a.cfg.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	return 1 / float64(fps)
}

// UpdateHeadless runs one fixed-step frame with no window. Time advances by
// exactly 1/target_fps per call, so runs are reproducible.
func (a *App) UpdateHeadless() error {
	a.perfCollector.StartTick()
	err := a.step(a.fixedDT())
	a.perfCollector.EndTick()
	a.perfCollector.RecordFrame()
	if err != nil {
		return err
	}

	a.maybeFlush()
	return nil
}
