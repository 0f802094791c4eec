package mapdata

import (
	"fmt"
	"os"

	"github.com/tysonmote/gommap"
)

//MapFile 只读内存映射文件
type MapFile struct {
	File *os.File
	Map  gommap.MMap
	Len  int64
}

// OpenMapFile maps path read-only. An empty file yields an empty mapping
// because a zero length mmap fails on most platforms.
func OpenMapFile(path string) (*MapFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	mf := &MapFile{File: f, Len: st.Size()}
	if mf.Len == 0 {
		return mf, nil
	}
	mmap, err := gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_PRIVATE)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	mf.Map = mmap
	return mf, nil
}

//Bytes 映射内容，Close 之后不可再用
func (mf *MapFile) Bytes() []byte {
	return mf.Map
}

//ModTime 文件修改时间(毫秒)
func (mf *MapFile) ModTime() int64 {
	st, err := mf.File.Stat()
	if err != nil {
		return 0
	}
	return st.ModTime().UnixMilli()
}

//Close 解除映射并关闭文件
func (mf *MapFile) Close() error {
	if mf.Map != nil {
		if err := mf.Map.UnsafeUnmap(); err != nil {
			return err
		}
		mf.Map = nil
	}
	return mf.File.Close()
}
