package finder

import "testing"

func FuzzIsUnderRoot(f *testing.F) {
	f.Add("/root/foo.d.ts", "/root")
	f.Add("/root/pkg/sub/foo.d.ts", "/root")
	f.Add("/other/foo.d.ts", "/root")
	f.Add("", "")
	f.Add("..", "/root")
	f.Fuzz(func(t *testing.T, path, root string) {
		isUnderRoot(path, root) // must not panic
	})
}
