package compiler

import (
	"fmt"
	"sync"
	"testing"
)

func TestCacheHit(t *testing.T) {
	c := NewCache()
	cfg := DefaultConfig()
	src := "Print 1 + 2"

	res1, hit, err := c.Compile(src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first compile reported a hit")
	}
	res2, hit, err := c.Compile(src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second compile missed")
	}
	if res1.GeneratedCode != res2.GeneratedCode {
		t.Error("cached result differs")
	}
	if c.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", c.Len())
	}
}

func TestCacheKeyedByLevel(t *testing.T) {
	c := NewCache()
	src := "Print 1"
	cfg := DefaultConfig()

	if _, _, err := c.Compile(src, cfg); err != nil {
		t.Fatal(err)
	}
	cfg.OptimizationLevel = 2
	_, hit, err := c.Compile(src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("different level should miss")
	}
	if c.Len() != 2 {
		t.Errorf("cache holds %d entries, want 2", c.Len())
	}
}

func TestCacheKeyedByContent(t *testing.T) {
	c := NewCache()
	cfg := DefaultConfig()
	if _, _, err := c.Compile("Print 1", cfg); err != nil {
		t.Fatal(err)
	}
	_, hit, err := c.Compile("Print 2", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("different source should miss")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache()
	cfg := DefaultConfig()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			src := fmt.Sprintf("Print %d", n%4)
			for j := 0; j < 20; j++ {
				if _, _, err := c.Compile(src, cfg); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != 4 {
		t.Errorf("cache holds %d entries, want 4", c.Len())
	}
}
