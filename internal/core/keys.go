package core

// KeyEscape is the key code reported for the Escape key
const KeyEscape = 27

// KeyAction maps a key code to its action. Unbound keys, including -1 (no key), report false.
func KeyAction(key int) (Action, bool) {
	switch key {
	case 'q', KeyEscape:
		return Quit{}, true
	case '1':
		return SelectROI{Index: 0}, true
	case '2':
		return SelectROI{Index: 1}, true
	case 'r', 'R':
		return RotateCW{}, true
	case 'h', 'H':
		return MirrorH{}, true
	case 'v', 'V':
		return MirrorV{}, true
	case 's', 'S':
		return Save{}, true
	case '+', '=':
		return ExposureUp{}, true
	case '-', '_':
		return ExposureDown{}, true
	}
	return nil, false
}
