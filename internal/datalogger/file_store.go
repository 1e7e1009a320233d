package datalogger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileStore 从 YAML 文件加载的只读登记表
type FileStore struct {
	byID map[string]*Datalogger
}

type fileDoc struct {
	Dataloggers []Datalogger `yaml:"dataloggers"`
}

// LoadFile 读取 YAML 登记表；DevEUI 不区分大小写
func LoadFile(path string) (*FileStore, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(b)
}

// ParseFile 解析 YAML 登记表内容
func ParseFile(b []byte) (*FileStore, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse dataloggers: %w", err)
	}
	s := &FileStore{byID: make(map[string]*Datalogger, len(doc.Dataloggers))}
	for i := range doc.Dataloggers {
		d := doc.Dataloggers[i]
		if d.DevID == "" {
			return nil, fmt.Errorf("datalogger #%d: devid is required", i)
		}
		key := strings.ToUpper(d.DevID)
		if _, dup := s.byID[key]; dup {
			return nil, fmt.Errorf("datalogger %s: duplicate devid", d.DevID)
		}
		d.DevID = key
		s.byID[key] = &d
	}
	return s, nil
}

// Get 实现 Store；返回副本
func (s *FileStore) Get(_ context.Context, devID string) (*Datalogger, error) {
	d, ok := s.byID[strings.ToUpper(devID)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	cp.Forwards = append(cp.Forwards[:0:0], d.Forwards...)
	return &cp, nil
}

// Len 登记的设备数
func (s *FileStore) Len() int { return len(s.byID) }

// All 按 DevEUI 排序返回所有设备的副本
func (s *FileStore) All() []*Datalogger {
	keys := make([]string, 0, len(s.byID))
	for k := range s.byID {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Datalogger, 0, len(keys))
	for _, k := range keys {
		d, _ := s.Get(context.Background(), k)
		out = append(out, d)
	}
	return out
}
