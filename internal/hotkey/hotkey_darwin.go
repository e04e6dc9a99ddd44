//go:build darwin

package hotkey

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation

#include <ApplicationServices/ApplicationServices.h>
#include <pthread.h>
#include <unistd.h>

static volatile unsigned long hotkeyHits = 0;
static volatile int hotkeyCode = -1;
static volatile CGEventFlags hotkeyFlags = 0;

static CFMachPortRef hkTap = NULL;
static CFRunLoopSourceRef hkSource = NULL;
static CFRunLoopRef hkRunLoop = NULL;
static volatile int hkEnabled = 0;
static pthread_t hkThread;
static volatile int hkThreadRunning = 0;

static const CGEventFlags hkMask = kCGEventFlagMaskCommand | kCGEventFlagMaskControl |
	kCGEventFlagMaskAlternate | kCGEventFlagMaskShift;

static CGEventRef hkCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon) {
	(void)proxy;
	(void)refcon;

	if (type == kCGEventTapDisabledByUserInput || type == kCGEventTapDisabledByTimeout) {
		if (hkTap != NULL) {
			CGEventTapEnable(hkTap, true);
		}
		return event;
	}
	if (type != kCGEventKeyDown) {
		return event;
	}
	if (CGEventGetIntegerValueField(event, kCGKeyboardEventAutorepeat) != 0) {
		return event;
	}
	int code = (int)CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
	if (code == hotkeyCode && (CGEventGetFlags(event) & hkMask) == hotkeyFlags) {
		hotkeyHits++;
		return NULL;
	}
	return event;
}

static void* hkLoop(void* arg) {
	(void)arg;
	hkRunLoop = CFRunLoopGetCurrent();
	CFRunLoopAddSource(hkRunLoop, hkSource, kCFRunLoopCommonModes);
	CGEventTapEnable(hkTap, true);
	hkEnabled = 1;
	CFRunLoopRun();
	hkEnabled = 0;
	hkRunLoop = NULL;
	return NULL;
}

static void hkStop(void) {
	if (hkTap == NULL) {
		return;
	}
	CGEventTapEnable(hkTap, false);
	if (hkRunLoop != NULL) {
		CFRunLoopStop(hkRunLoop);
	}
	if (hkThreadRunning) {
		pthread_join(hkThread, NULL);
		hkThreadRunning = 0;
	}
	if (hkSource != NULL) {
		CFRelease(hkSource);
		hkSource = NULL;
	}
	CFRelease(hkTap);
	hkTap = NULL;
}

// mods uses the Go Modifier bits: 1 command, 2 control, 4 option, 8 shift.
static int hkStart(int code, int mods) {
	if (hkTap != NULL) {
		return 1;
	}
	CGEventFlags flags = 0;
	if (mods & 1) flags |= kCGEventFlagMaskCommand;
	if (mods & 2) flags |= kCGEventFlagMaskControl;
	if (mods & 4) flags |= kCGEventFlagMaskAlternate;
	if (mods & 8) flags |= kCGEventFlagMaskShift;
	hotkeyCode = code;
	hotkeyFlags = flags;

	hkTap = CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap,
		kCGEventTapOptionDefault, CGEventMaskBit(kCGEventKeyDown), hkCallback, NULL);
	if (hkTap == NULL) {
		return -1;
	}
	hkSource = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, hkTap, 0);
	if (hkSource == NULL) {
		CFRelease(hkTap);
		hkTap = NULL;
		return -2;
	}
	hkThreadRunning = 1;
	if (pthread_create(&hkThread, NULL, hkLoop, NULL) != 0) {
		hkThreadRunning = 0;
		CFRelease(hkSource);
		CFRelease(hkTap);
		hkSource = NULL;
		hkTap = NULL;
		return -3;
	}
	for (int i = 0; i < 100 && !hkEnabled; i++) {
		usleep(10000);
	}
	if (!hkEnabled) {
		hkStop();
		return -4;
	}
	return 0;
}

static unsigned long hkHits(void) {
	return hotkeyHits;
}
*/
import "C"

import (
	"errors"
)

type darwinHook struct{}

func start(c Combo) (hook, error) {
	switch C.hkStart(C.int(c.KeyCode), C.int(c.Mods)) {
	case 0:
		return darwinHook{}, nil
	case 1:
		return nil, ErrAlreadyRunning
	case -1:
		return nil, ErrPermissionDenied
	case -2:
		return nil, errors.New("hotkey: failed to create run loop source")
	case -3:
		return nil, errors.New("hotkey: failed to create run loop thread")
	default:
		return nil, errors.New("hotkey: timeout waiting for event tap")
	}
}

func (darwinHook) hits() uint64 {
	return uint64(C.hkHits())
}

func (darwinHook) stop() {
	C.hkStop()
}
