//go:build darwin

package clipboard

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa

#import <Cocoa/Cocoa.h>
#import <AppKit/AppKit.h>
#import <dispatch/dispatch.h>
#include <stdlib.h>
#include <string.h>

// ============================================================================
// Pasteboard access via main thread
// ============================================================================
//
// NSPasteboard must be touched from the main thread. Every entry point runs
// its body through onMain, which dispatches synchronously when called from a
// background thread.
//
// ============================================================================

typedef struct {
    int item;
    char* type;
    void* data;
    int len;
} pbEntry;

static void onMain(void (^block)(void)) {
    if ([NSThread isMainThread]) {
        block();
    } else {
        dispatch_sync(dispatch_get_main_queue(), block);
    }
}

static int pbSnapshot(pbEntry** out, int* count) {
    __block pbEntry* entries = NULL;
    __block int n = 0;
    onMain(^{
        @autoreleasepool {
            NSArray<NSPasteboardItem*>* items = [[NSPasteboard generalPasteboard] pasteboardItems];
            int capacity = 0;
            for (NSPasteboardItem* item in items) {
                capacity += (int)[[item types] count];
            }
            if (capacity == 0) {
                return;
            }
            entries = calloc(capacity, sizeof(pbEntry));
            int index = 0;
            for (NSPasteboardItem* item in items) {
                for (NSPasteboardType type in [item types]) {
                    NSData* data = [item dataForType:type];
                    if (data == nil || n >= capacity) {
                        continue;
                    }
                    pbEntry* e = &entries[n++];
                    e->item = index;
                    e->type = strdup([type UTF8String]);
                    e->len = (int)[data length];
                    e->data = malloc(e->len > 0 ? e->len : 1);
                    memcpy(e->data, [data bytes], e->len);
                }
                index++;
            }
        }
    });
    *out = entries;
    *count = n;
    return 1;
}

static void pbFree(pbEntry* entries, int count) {
    if (entries == NULL) {
        return;
    }
    for (int i = 0; i < count; i++) {
        free(entries[i].type);
        free(entries[i].data);
    }
    free(entries);
}

static int pbRestore(pbEntry* entries, int count) {
    __block int ok = 1;
    onMain(^{
        @autoreleasepool {
            NSPasteboard* pasteboard = [NSPasteboard generalPasteboard];
            [pasteboard clearContents];
            if (count == 0) {
                return;
            }
            NSMutableArray<NSPasteboardItem*>* items = [NSMutableArray array];
            NSPasteboardItem* current = nil;
            int currentIndex = -1;
            for (int i = 0; i < count; i++) {
                if (current == nil || entries[i].item != currentIndex) {
                    current = [[NSPasteboardItem alloc] init];
                    currentIndex = entries[i].item;
                    [items addObject:current];
                }
                NSData* data = [NSData dataWithBytes:entries[i].data length:entries[i].len];
                NSString* type = [NSString stringWithUTF8String:entries[i].type];
                [current setData:data forType:type];
            }
            ok = [pasteboard writeObjects:items] ? 1 : 0;
        }
    });
    return ok;
}

static char* pbReadString(int* n) {
    __block char* result = NULL;
    onMain(^{
        @autoreleasepool {
            NSString* text = [[NSPasteboard generalPasteboard] stringForType:NSPasteboardTypeString];
            NSData* data = [text dataUsingEncoding:NSUTF8StringEncoding];
            if (data != nil) {
                *n = (int)[data length];
                result = malloc(*n > 0 ? *n : 1);
                if (result != NULL) {
                    memcpy(result, [data bytes], *n);
                }
            }
        }
    });
    return result;
}

static int pbWriteString(const char* bytes, int n) {
    __block int ok = 0;
    onMain(^{
        @autoreleasepool {
            NSPasteboard* pasteboard = [NSPasteboard generalPasteboard];
            NSString* text = [[NSString alloc] initWithBytes:bytes length:n encoding:NSUTF8StringEncoding];
            if (text == nil) {
                return;
            }
            [pasteboard clearContents];
            ok = [pasteboard setString:text forType:NSPasteboardTypeString] ? 1 : 0;
        }
    });
    return ok;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

type darwinPasteboard struct{}

// New returns the general system pasteboard.
func New() Pasteboard {
	return darwinPasteboard{}
}

func (darwinPasteboard) Snapshot() (Snapshot, error) {
	var entries *C.pbEntry
	var count C.int
	if C.pbSnapshot(&entries, &count) == 0 {
		return Snapshot{}, ErrUnavailable
	}
	defer C.pbFree(entries, count)

	var snap Snapshot
	if count == 0 {
		return snap, nil
	}
	list := unsafe.Slice(entries, int(count))
	last := -1
	for _, e := range list {
		if int(e.item) != last {
			snap.Items = append(snap.Items, Item{})
			last = int(e.item)
		}
		entry := Entry{
			Type: C.GoString(e._type),
			Data: C.GoBytes(e.data, e.len),
		}
		snap.Items[len(snap.Items)-1] = append(snap.Items[len(snap.Items)-1], entry)
	}
	return snap, nil
}

func (darwinPasteboard) Restore(s Snapshot) error {
	n := 0
	for _, item := range s.Items {
		n += len(item)
	}
	if n == 0 {
		if C.pbRestore(nil, 0) == 0 {
			return ErrUnavailable
		}
		return nil
	}

	entries := (*C.pbEntry)(C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(C.pbEntry{}))))
	defer C.pbFree(entries, C.int(n))
	list := unsafe.Slice(entries, n)
	i := 0
	for index, item := range s.Items {
		for _, e := range item {
			list[i].item = C.int(index)
			list[i]._type = C.CString(e.Type)
			list[i].data = C.CBytes(e.Data)
			list[i].len = C.int(len(e.Data))
			i++
		}
	}
	if C.pbRestore(entries, C.int(n)) == 0 {
		return fmt.Errorf("clipboard: restore %d items: %w", len(s.Items), ErrUnavailable)
	}
	return nil
}

func (darwinPasteboard) ReadString() (string, bool) {
	var n C.int
	cs := C.pbReadString(&n)
	if cs == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(cs))
	return C.GoStringN(cs, n), true
}

func (darwinPasteboard) WriteString(text string) error {
	cs := C.CString(text)
	defer C.free(unsafe.Pointer(cs))
	if C.pbWriteString(cs, C.int(len(text))) == 0 {
		return ErrUnavailable
	}
	return nil
}
