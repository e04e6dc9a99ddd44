//go:build darwin

package keys

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation

#include <ApplicationServices/ApplicationServices.h>

static int postCommandKey(int keyCode) {
    CGEventSourceRef source = CGEventSourceCreate(kCGEventSourceStateCombinedSessionState);
    CGEventRef down = CGEventCreateKeyboardEvent(source, (CGKeyCode)keyCode, true);
    CGEventRef up = CGEventCreateKeyboardEvent(source, (CGKeyCode)keyCode, false);
    if (down == NULL || up == NULL) {
        if (down) CFRelease(down);
        if (up) CFRelease(up);
        if (source) CFRelease(source);
        return 0;
    }
    CGEventSetFlags(down, kCGEventFlagMaskCommand);
    CGEventSetFlags(up, kCGEventFlagMaskCommand);
    CGEventPost(kCGHIDEventTap, down);
    CGEventPost(kCGHIDEventTap, up);
    CFRelease(down);
    CFRelease(up);
    if (source) CFRelease(source);
    return 1;
}
*/
import "C"

import "fmt"

type eventSynthesizer struct{}

// New returns a synthesizer posting CGEvents to the HID event tap.
func New() Synthesizer {
	return eventSynthesizer{}
}

func (eventSynthesizer) Send(s Shortcut) error {
	if C.postCommandKey(C.int(s.keyCode())) == 0 {
		return fmt.Errorf("keys: post %s: event creation failed", s)
	}
	return nil
}
