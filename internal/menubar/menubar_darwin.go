//go:build darwin

package menubar

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework AppKit -framework Foundation

#import <AppKit/AppKit.h>
#include <stdatomic.h>
#include <stdlib.h>

#define MB_ITEMS 4

static _Atomic int mbPending[MB_ITEMS];

@interface IPMenuTarget : NSObject
- (void)clicked:(NSMenuItem *)sender;
@end

@implementation IPMenuTarget
- (void)clicked:(NSMenuItem *)sender {
	NSInteger tag = sender.tag;
	if (tag >= 0 && tag < MB_ITEMS) {
		atomic_fetch_add(&mbPending[tag], 1);
	}
}
@end

static NSStatusItem *mbItem = nil;
static IPMenuTarget *mbTarget = nil;
static NSMenuItem *mbRewrite = nil;

static NSMenuItem *mbAdd(NSMenu *menu, NSString *title, NSString *key, NSInteger tag) {
	NSMenuItem *item = [menu addItemWithTitle:title action:@selector(clicked:) keyEquivalent:key];
	item.target = mbTarget;
	item.tag = tag;
	return item;
}

// Titles are indexed by item tag. They are copied before returning.
static void mbInstall(const char *rewrite, const char *prefs, const char *access, const char *quit) {
	NSString *t0 = [NSString stringWithUTF8String:rewrite];
	NSString *t1 = [NSString stringWithUTF8String:prefs];
	NSString *t2 = [NSString stringWithUTF8String:access];
	NSString *t3 = [NSString stringWithUTF8String:quit];
	for (int i = 0; i < MB_ITEMS; i++) {
		atomic_store(&mbPending[i], 0);
	}
	dispatch_async(dispatch_get_main_queue(), ^{
		if (mbItem != nil) {
			return;
		}
		mbTarget = [IPMenuTarget new];
		mbItem = [[NSStatusBar systemStatusBar] statusItemWithLength:NSVariableStatusItemLength];
		NSImage *img = nil;
		if (@available(macOS 11.0, *)) {
			img = [NSImage imageWithSystemSymbolName:@"text.badge.star" accessibilityDescription:@"InplaceAI"];
		}
		if (img != nil) {
			mbItem.button.image = img;
			mbItem.button.imagePosition = NSImageOnly;
		} else {
			mbItem.button.title = @"✎";
		}

		NSMenu *menu = [NSMenu new];
		menu.autoenablesItems = NO;
		mbRewrite = mbAdd(menu, t0, @"", 0);
		mbAdd(menu, t1, @",", 1);
		mbAdd(menu, t2, @"", 2);
		[menu addItem:[NSMenuItem separatorItem]];
		mbAdd(menu, t3, @"q", 3);
		mbItem.menu = menu;
	});
}

static void mbSetBusy(int busy) {
	dispatch_async(dispatch_get_main_queue(), ^{
		if (mbItem == nil) {
			return;
		}
		mbItem.button.appearsDisabled = busy ? YES : NO;
		mbRewrite.enabled = busy ? NO : YES;
	});
}

static void mbRemove(void) {
	dispatch_async(dispatch_get_main_queue(), ^{
		if (mbItem == nil) {
			return;
		}
		[[NSStatusBar systemStatusBar] removeStatusItem:mbItem];
		mbItem = nil;
		mbRewrite = nil;
		mbTarget = nil;
	});
}

static int mbTake(int tag) {
	return atomic_exchange(&mbPending[tag], 0);
}
*/
import "C"

import "unsafe"

type darwinBar struct{}

func install(symbol string) (bar, error) {
	titles := make([]*C.char, itemCount)
	for i := Item(0); i < itemCount; i++ {
		titles[i] = C.CString(i.Title(symbol))
	}
	defer func() {
		for _, t := range titles {
			C.free(unsafe.Pointer(t))
		}
	}()
	C.mbInstall(titles[ItemRewrite], titles[ItemPreferences], titles[ItemAccessibility], titles[ItemQuit])
	return darwinBar{}, nil
}

func (darwinBar) take(i Item) int {
	return int(C.mbTake(C.int(i)))
}

func (darwinBar) setBusy(busy bool) {
	v := 0
	if busy {
		v = 1
	}
	C.mbSetBusy(C.int(v))
}

func (darwinBar) remove() {
	C.mbRemove()
}
