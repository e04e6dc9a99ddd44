//go:build darwin

package ax

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation -framework AppKit

#include <ApplicationServices/ApplicationServices.h>
#include <AppKit/AppKit.h>
#include <stdlib.h>
#include <string.h>

// ============================================================================
// Accessibility bridge
// ============================================================================
//
// Thin wrappers over AXUIElementCopyAttributeValue / SetAttributeValue. Every
// function returns the raw AXError so the Go side can map it; values are
// handed back as malloc'd UTF-8 strings or plain C structs.
//
// ============================================================================

enum {
    attrSelectedText = 0,
    attrValue = 1,
    attrSelectedRange = 2,
    attrPosition = 3,
    attrSize = 4,
};

static CFStringRef attrName(int attr) {
    switch (attr) {
    case attrSelectedText:  return kAXSelectedTextAttribute;
    case attrValue:         return kAXValueAttribute;
    case attrSelectedRange: return kAXSelectedTextRangeAttribute;
    case attrPosition:      return kAXPositionAttribute;
    case attrSize:          return kAXSizeAttribute;
    }
    return kAXValueAttribute;
}

static int axIsTrusted(void) {
    return AXIsProcessTrusted() ? 1 : 0;
}

static int axRequestTrust(int prompt) {
    const void* keys[] = { kAXTrustedCheckOptionPrompt };
    const void* values[] = { prompt ? kCFBooleanTrue : kCFBooleanFalse };
    CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    Boolean trusted = AXIsProcessTrustedWithOptions(options);
    CFRelease(options);
    return trusted ? 1 : 0;
}

static int cfStringIsNull(CFStringRef s) {
    return s == NULL ? 1 : 0;
}

static CFStringRef cfStringFromUTF8(const char* bytes, int n) {
    return CFStringCreateWithBytes(kCFAllocatorDefault, (const UInt8*)bytes, n, kCFStringEncodingUTF8, false);
}

// cfStringToUTF8 copies s into a malloc'd buffer and stores the byte count
// in n. The text may contain NUL.
static char* cfStringToUTF8(CFStringRef s, CFIndex* n) {
    CFIndex length = CFStringGetLength(s);
    CFIndex maxSize = CFStringGetMaximumSizeForEncoding(length, kCFStringEncodingUTF8);
    char* result = malloc(maxSize > 0 ? maxSize : 1);
    if (result == NULL) {
        return NULL;
    }
    CFIndex used = 0;
    CFIndex converted = CFStringGetBytes(s, CFRangeMake(0, length), kCFStringEncodingUTF8,
        0, false, (UInt8*)result, maxSize, &used);
    if (converted != length) {
        free(result);
        return NULL;
    }
    *n = used;
    return result;
}

static AXError axFocusedElement(AXUIElementRef* out) {
    AXUIElementRef systemWide = AXUIElementCreateSystemWide();
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(systemWide, kAXFocusedUIElementAttribute, &value);
    CFRelease(systemWide);
    if (err != kAXErrorSuccess) {
        return err;
    }
    if (value == NULL) {
        return kAXErrorNoValue;
    }
    if (CFGetTypeID(value) != AXUIElementGetTypeID()) {
        CFRelease(value);
        return kAXErrorNoValue;
    }
    *out = (AXUIElementRef)value;
    return kAXErrorSuccess;
}

// kind: 0 none, 1 plain string, 2 attributed string. *out is retained.
static AXError axCopyString(AXUIElementRef el, int attr, int* kind, CFStringRef* out) {
    *kind = 0;
    *out = NULL;
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, attrName(attr), &value);
    if (err != kAXErrorSuccess) {
        return err;
    }
    if (value == NULL) {
        return kAXErrorNoValue;
    }
    if (CFGetTypeID(value) == CFStringGetTypeID()) {
        *out = (CFStringRef)CFRetain(value);
        *kind = 1;
    } else if (CFGetTypeID(value) == CFAttributedStringGetTypeID()) {
        *out = (CFStringRef)CFRetain(CFAttributedStringGetString((CFAttributedStringRef)value));
        *kind = 2;
    }
    CFRelease(value);
    return kAXErrorSuccess;
}

static AXError axCopyRange(AXUIElementRef el, CFIndex* location, CFIndex* length) {
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, kAXSelectedTextRangeAttribute, &value);
    if (err != kAXErrorSuccess) {
        return err;
    }
    if (value == NULL) {
        return kAXErrorNoValue;
    }
    AXError result = kAXErrorNoValue;
    if (CFGetTypeID(value) == AXValueGetTypeID() && AXValueGetType((AXValueRef)value) == kAXValueCFRangeType) {
        CFRange range;
        if (AXValueGetValue((AXValueRef)value, kAXValueCFRangeType, &range)) {
            *location = range.location;
            *length = range.length;
            result = kAXErrorSuccess;
        }
    }
    CFRelease(value);
    return result;
}

static AXError axCopyFrame(AXUIElementRef el, double* x, double* y, double* w, double* h) {
    CFTypeRef position = NULL;
    CFTypeRef size = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, kAXPositionAttribute, &position);
    if (err != kAXErrorSuccess) {
        return err;
    }
    if (position == NULL || CFGetTypeID(position) != AXValueGetTypeID()) {
        if (position) CFRelease(position);
        return kAXErrorNoValue;
    }
    err = AXUIElementCopyAttributeValue(el, kAXSizeAttribute, &size);
    if (err != kAXErrorSuccess) {
        CFRelease(position);
        return err;
    }
    if (size == NULL || CFGetTypeID(size) != AXValueGetTypeID()) {
        CFRelease(position);
        if (size) CFRelease(size);
        return kAXErrorNoValue;
    }
    CGPoint origin = CGPointZero;
    CGSize extent = CGSizeZero;
    AXValueGetValue((AXValueRef)position, kAXValueCGPointType, &origin);
    AXValueGetValue((AXValueRef)size, kAXValueCGSizeType, &extent);
    CFRelease(position);
    CFRelease(size);
    *x = origin.x;
    *y = origin.y;
    *w = extent.width;
    *h = extent.height;
    return kAXErrorSuccess;
}

static AXError axCopyBoundsForRange(AXUIElementRef el, CFIndex location, CFIndex length,
                                    double* x, double* y, double* w, double* h) {
    CFRange range = CFRangeMake(location, length);
    AXValueRef param = AXValueCreate(kAXValueCFRangeType, &range);
    if (param == NULL) {
        return kAXErrorFailure;
    }
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyParameterizedAttributeValue(el, kAXBoundsForRangeParameterizedAttribute, param, &value);
    CFRelease(param);
    if (err != kAXErrorSuccess) {
        return err;
    }
    if (value == NULL) {
        return kAXErrorNoValue;
    }
    AXError result = kAXErrorNoValue;
    if (CFGetTypeID(value) == AXValueGetTypeID() && AXValueGetType((AXValueRef)value) == kAXValueCGRectType) {
        CGRect rect;
        if (AXValueGetValue((AXValueRef)value, kAXValueCGRectType, &rect)) {
            *x = rect.origin.x;
            *y = rect.origin.y;
            *w = rect.size.width;
            *h = rect.size.height;
            result = kAXErrorSuccess;
        }
    }
    CFRelease(value);
    return result;
}

static AXError axSetString(AXUIElementRef el, int attr, CFStringRef str) {
    return AXUIElementSetAttributeValue(el, attrName(attr), str);
}

static AXError axSetRange(AXUIElementRef el, CFIndex location, CFIndex length) {
    CFRange range = CFRangeMake(location, length);
    AXValueRef value = AXValueCreate(kAXValueCFRangeType, &range);
    if (value == NULL) {
        return kAXErrorFailure;
    }
    AXError err = AXUIElementSetAttributeValue(el, kAXSelectedTextRangeAttribute, value);
    CFRelease(value);
    return err;
}

static AXError axPID(AXUIElementRef el, int* pid) {
    pid_t p = 0;
    AXError err = AXUIElementGetPid(el, &p);
    *pid = (int)p;
    return err;
}

static int axActivate(int pid) {
    @autoreleasepool {
        NSRunningApplication* app = [NSRunningApplication runningApplicationWithProcessIdentifier:(pid_t)pid];
        if (app == nil) {
            return 0;
        }
        return [app activateWithOptions:NSApplicationActivateIgnoringOtherApps] ? 1 : 0;
    }
}

static int axIsNull(AXUIElementRef el) {
    return el == NULL ? 1 : 0;
}

static void axRelease(AXUIElementRef el) {
    if (el != NULL) {
        CFRelease(el);
    }
}
*/
import "C"

import (
	"os/exec"
	"runtime"
	"unsafe"
)

const (
	attrSelectedText = C.attrSelectedText
	attrValue        = C.attrValue
)

const accessibilitySettingsURL = "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"

// axRef owns one retain on an AXUIElementRef.
type axRef struct {
	el C.AXUIElementRef
}

func newRef(el C.AXUIElementRef) *axRef {
	r := &axRef{el: el}
	runtime.SetFinalizer(r, func(r *axRef) {
		C.axRelease(r.el)
	})
	return r
}

type darwinBridge struct{}

// New returns the macOS accessibility bridge.
func New() Bridge {
	return darwinBridge{}
}

// RequestTrust asks the system for the accessibility permission, showing the
// system prompt when prompt is true. It reports the current trust state.
func RequestTrust(prompt bool) bool {
	p := C.int(0)
	if prompt {
		p = 1
	}
	return C.axRequestTrust(p) == 1
}

// OpenAccessibilitySettings opens the Accessibility pane of System Settings.
func OpenAccessibilitySettings() error {
	return exec.Command("open", accessibilitySettingsURL).Run()
}

func refOf(el Element) (C.AXUIElementRef, bool) {
	var zero C.AXUIElementRef
	r, ok := el.Ref().(*axRef)
	if !ok || r == nil || C.axIsNull(r.el) == 1 {
		return zero, false
	}
	return r.el, true
}

func (darwinBridge) Trusted() bool {
	return C.axIsTrusted() == 1
}

func (darwinBridge) FocusedElement() (Element, error) {
	var el C.AXUIElementRef
	code := Code(C.axFocusedElement(&el))
	if err := Check("focused element", code); err != nil {
		if err == ErrPermissionDenied {
			return Element{}, err
		}
		return Element{}, ErrNoFocusedElement
	}
	return NewElement(newRef(el)), nil
}

func (b darwinBridge) copyString(el Element, attr C.int) Value {
	ref, ok := refOf(el)
	if !ok {
		return Value{}
	}
	var kind C.int
	var out C.CFStringRef
	code := Code(C.axCopyString(ref, attr, &kind, &out))
	runtime.KeepAlive(el.Ref())
	if C.cfStringIsNull(out) == 0 {
		defer releaseCF(out)
	}
	if Check("copy string", code) != nil || C.cfStringIsNull(out) == 1 {
		return Value{}
	}
	text, ok := goString(out)
	if !ok {
		return Value{}
	}
	return Value{Kind: ValueKind(kind), Text: text}
}

// newCFString converts text, embedded NULs included. The caller releases it.
func newCFString(text string) (C.CFStringRef, bool) {
	cs := C.CString(text)
	defer C.free(unsafe.Pointer(cs))
	s := C.cfStringFromUTF8(cs, C.int(len(text)))
	return s, C.cfStringIsNull(s) == 0
}

// goString is the inverse of newCFString.
func goString(s C.CFStringRef) (string, bool) {
	var n C.CFIndex
	out := C.cfStringToUTF8(s, &n)
	if out == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(out))
	return C.GoStringN(out, C.int(n)), true
}

func releaseCF(s C.CFStringRef) {
	C.CFRelease(C.CFTypeRef(s))
}

func (b darwinBridge) SelectedText(el Element) (string, bool) {
	return b.copyString(el, attrSelectedText).String()
}

func (b darwinBridge) Value(el Element) (string, bool) {
	return b.copyString(el, attrValue).String()
}

func (darwinBridge) SelectedRange(el Element) (Range, bool) {
	ref, ok := refOf(el)
	if !ok {
		return Range{}, false
	}
	var loc, length C.CFIndex
	code := Code(C.axCopyRange(ref, &loc, &length))
	runtime.KeepAlive(el.Ref())
	if Check("selected range", code) != nil {
		return Range{}, false
	}
	r := Range{Location: int(loc), Length: int(length)}
	if !r.Valid() {
		return Range{}, false
	}
	return r, true
}

func (darwinBridge) Frame(el Element) (Rect, bool) {
	ref, ok := refOf(el)
	if !ok {
		return Rect{}, false
	}
	var x, y, w, h C.double
	code := Code(C.axCopyFrame(ref, &x, &y, &w, &h))
	runtime.KeepAlive(el.Ref())
	if Check("frame", code) != nil {
		return Rect{}, false
	}
	return Rect{Origin: Point{X: float64(x), Y: float64(y)}, Size: Size{Width: float64(w), Height: float64(h)}}, true
}

func (darwinBridge) BoundsForRange(el Element, r Range) (Rect, bool) {
	ref, ok := refOf(el)
	if !ok || !r.Valid() {
		return Rect{}, false
	}
	var x, y, w, h C.double
	code := Code(C.axCopyBoundsForRange(ref, C.CFIndex(r.Location), C.CFIndex(r.Length), &x, &y, &w, &h))
	runtime.KeepAlive(el.Ref())
	if Check("bounds for range", code) != nil {
		return Rect{}, false
	}
	rect := Rect{Origin: Point{X: float64(x), Y: float64(y)}, Size: Size{Width: float64(w), Height: float64(h)}}
	if rect.IsEmpty() {
		return Rect{}, false
	}
	return rect, true
}

func (darwinBridge) setString(el Element, attr C.int, text string) bool {
	ref, ok := refOf(el)
	if !ok {
		return false
	}
	str, ok := newCFString(text)
	if !ok {
		return false
	}
	defer releaseCF(str)
	code := Code(C.axSetString(ref, attr, str))
	runtime.KeepAlive(el.Ref())
	return Check("set string", code) == nil
}

func (b darwinBridge) SetSelectedText(el Element, text string) bool {
	return b.setString(el, attrSelectedText, text)
}

func (b darwinBridge) SetValue(el Element, text string) bool {
	return b.setString(el, attrValue, text)
}

func (darwinBridge) SetSelectedRange(el Element, r Range) bool {
	ref, ok := refOf(el)
	if !ok || !r.Valid() {
		return false
	}
	code := Code(C.axSetRange(ref, C.CFIndex(r.Location), C.CFIndex(r.Length)))
	runtime.KeepAlive(el.Ref())
	return Check("set selected range", code) == nil
}

func (darwinBridge) PID(el Element) (int, bool) {
	ref, ok := refOf(el)
	if !ok {
		return 0, false
	}
	var pid C.int
	code := Code(C.axPID(ref, &pid))
	runtime.KeepAlive(el.Ref())
	if Check("pid", code) != nil || pid <= 0 {
		return 0, false
	}
	return int(pid), true
}

func (darwinBridge) Activate(pid int) bool {
	if pid <= 0 {
		return false
	}
	return C.axActivate(C.int(pid)) == 1
}
