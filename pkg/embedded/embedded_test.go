package embedded

import (
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"data/battle.yaml":           {Data: []byte("step_rate: 60\n")},
		"data/animations/alpha.yaml": {Data: []byte("states: []\n")},
		"data/animations/guard.yaml": {Data: []byte("states: []\n")},
		"data/scripts/current.tengo": {Data: []byte("x := 1\n")},
		"other/ignored.txt":          {Data: []byte("x")},
	}
}

// TestNotInitialized 测试未初始化时所有访问都返回错误
func TestNotInitialized(t *testing.T) {
	Init(nil)

	if IsInitialized() {
		t.Error("Expected IsInitialized() to return false")
	}
	_, err := ReadFile("data/battle.yaml")
	if err == nil {
		t.Fatal("Expected error when calling ReadFile() before Init()")
	}
	if err.Error() != "embedded package not initialized, call Init() first" {
		t.Errorf("Unexpected error message: %v", err)
	}
	if Exists("data/battle.yaml") {
		t.Error("Exists should be false before Init()")
	}
}

// TestReadFile 测试读取和路径标准化
func TestReadFile(t *testing.T) {
	Init(testFS())
	defer Init(nil)

	for _, path := range []string{"data/battle.yaml", "./data/battle.yaml"} {
		data, err := ReadFile(path)
		if err != nil {
			t.Errorf("ReadFile(%q) failed: %v", path, err)
			continue
		}
		if string(data) != "step_rate: 60\n" {
			t.Errorf("Unexpected content %q", data)
		}
	}
}

// TestUnknownPrefix 测试只允许 data/ 前缀
func TestUnknownPrefix(t *testing.T) {
	Init(testFS())
	defer Init(nil)

	if _, err := ReadFile("other/ignored.txt"); err == nil {
		t.Error("Expected error for a path outside data/")
	}
	if _, err := Open("assets/x.png"); err == nil {
		t.Error("Expected error for assets/ prefix")
	}
}

// TestGlobAndReadDir 测试目录遍历
func TestGlobAndReadDir(t *testing.T) {
	Init(testFS())
	defer Init(nil)

	files, err := Glob("data/animations/*.yaml")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Expected 2 animation files, got %v", files)
	}

	entries, err := ReadDir("data")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 entries under data/, got %d", len(entries))
	}

	sub, err := Sub("data/scripts")
	if err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if _, err := sub.Open("current.tengo"); err != nil {
		t.Errorf("Sub FS should expose current.tengo: %v", err)
	}

	info, err := Stat("data/battle.yaml")
	if err != nil || info.IsDir() {
		t.Errorf("Stat failed: %v", err)
	}
	if FS() == nil {
		t.Error("FS() should return the data filesystem")
	}
}
