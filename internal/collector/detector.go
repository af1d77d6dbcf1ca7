package collector

// Detector decides when infinite scrolling has stopped loading content.
type Detector struct {
	Threshold int // consecutive unchanged heights that mean "bottom"
}

// HasReachedBottom folds one height observation into the scroll state.
// An unchanged height increments repeats; a changed one resets repeats and
// becomes the new previous height.
func (d Detector) HasReachedBottom(current, previous, repeats int) (done bool, newPrevious, newRepeats int) {
	if current != previous {
		return false, current, 0
	}
	repeats++
	return repeats >= max(d.Threshold, 1), previous, repeats
}
