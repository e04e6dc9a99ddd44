//go:build darwin

package ui

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework AppKit -framework Foundation

#import <AppKit/AppKit.h>

typedef struct {
	double x, y, w, h;
	double vx, vy, vw, vh;
} uiScreen;

static NSWindow *uiWindow(uintptr_t view) {
	NSView *v = (__bridge NSView *)(void *)view;
	return v.window;
}

static void uiFloat(uintptr_t view) {
	dispatch_async(dispatch_get_main_queue(), ^{
		NSWindow *w = uiWindow(view);
		if (w == nil) {
			return;
		}
		w.level = NSStatusWindowLevel;
		w.collectionBehavior = NSWindowCollectionBehaviorCanJoinAllSpaces | NSWindowCollectionBehaviorTransient;
		w.hasShadow = YES;
		w.movableByWindowBackground = YES;
	});
}

static void uiMove(uintptr_t view, double x, double y) {
	dispatch_async(dispatch_get_main_queue(), ^{
		NSWindow *w = uiWindow(view);
		if (w != nil) {
			[w setFrameOrigin:NSMakePoint(x, y)];
		}
	});
}

static void uiFocus(uintptr_t view) {
	dispatch_async(dispatch_get_main_queue(), ^{
		NSWindow *w = uiWindow(view);
		if (w == nil) {
			return;
		}
		[NSApp activateIgnoringOtherApps:YES];
		[w makeKeyAndOrderFront:nil];
	});
}

// uiScreens fills out with up to max screens, primary first, and returns
// the number written. It must not wait for the main thread: the main thread
// may itself be waiting for the Gio window goroutine.
static int uiScreens(uiScreen *out, int max) {
	int n = 0;
	for (NSScreen *s in [NSScreen screens]) {
		if (n >= max) {
			break;
		}
		NSRect f = s.frame;
		NSRect v = s.visibleFrame;
		out[n] = (uiScreen){
			f.origin.x, f.origin.y, f.size.width, f.size.height,
			v.origin.x, v.origin.y, v.size.width, v.size.height,
		};
		n++;
	}
	return n;
}

static void uiPointer(double *x, double *y) {
	NSPoint p = [NSEvent mouseLocation];
	*x = p.x;
	*y = p.y;
}
*/
import "C"

import (
	gioapp "gioui.org/app"
	"gioui.org/io/event"

	"inplace/internal/ax"
)

const maxScreens = 16

type appKitWindow struct {
	view C.uintptr_t
}

func viewHandle(e event.Event) (nativeWindow, bool) {
	ve, ok := e.(gioapp.AppKitViewEvent)
	if !ok || ve.View == 0 {
		return nil, false
	}
	return appKitWindow{view: C.uintptr_t(ve.View)}, true
}

func (w appKitWindow) moveTo(origin ax.Point) {
	C.uiMove(w.view, C.double(origin.X), C.double(origin.Y))
}

func (w appKitWindow) float() {
	C.uiFloat(w.view)
}

func (w appKitWindow) focus() {
	C.uiFocus(w.view)
}

func currentLayout() Layout {
	var buf [maxScreens]C.uiScreen
	n := int(C.uiScreens(&buf[0], maxScreens))

	var l Layout
	for _, s := range buf[:n] {
		l.Screens = append(l.Screens, Screen{
			Frame:   rectOf(s.x, s.y, s.w, s.h),
			Visible: rectOf(s.vx, s.vy, s.vw, s.vh),
		})
	}
	var x, y C.double
	C.uiPointer(&x, &y)
	l.Pointer = ax.Point{X: float64(x), Y: float64(y)}
	return l
}

func rectOf(x, y, w, h C.double) ax.Rect {
	return ax.Rect{
		Origin: ax.Point{X: float64(x), Y: float64(y)},
		Size:   ax.Size{Width: float64(w), Height: float64(h)},
	}
}
