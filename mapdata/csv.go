package mapdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
)

// rows sampled when guessing coordinate columns by value range
const sampleRows = 7

//CSVStore CSV点数据源，只支持点类型数据
type CSVStore struct {
	*GeoJSONStore
}

//OpenCSV 打开csv文件
func OpenCSV(path string, pool *TagPool) (*CSVStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	s, err := ReadCSV(f, st.ModTime().UnixMilli(), pool)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("loaded %s: %d pois", path, len(s.pois))
	return s, nil
}

// ReadCSV parses point rows from r. Columns other than the coordinates
// become tags; a column named layer sets the drawing layer.
func ReadCSV(r io.Reader, timestamp int64, pool *TagPool) (*CSVStore, error) {
	if pool == nil {
		pool = NewTagPool()
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv")
	}
	headers, rows := records[0], records[1:]
	ix, iy := GetGeomCol(headers, rows)
	if ix < 0 || iy < 0 {
		return nil, fmt.Errorf(`找不到 "x", "lon", "longitude", "经度" 等空间坐标字段`)
	}

	s := &CSVStore{GeoJSONStore: &GeoJSONStore{timestamp: timestamp}}
	first := true
	for n, row := range rows {
		line := n + 2
		if ix >= len(row) || iy >= len(row) || len(row[ix]) == 0 || len(row[iy]) == 0 {
			log.Warnf("csv line(%d) nil geometry", line)
			continue
		}
		lon, errx := strconv.ParseFloat(strings.TrimSpace(row[ix]), 64)
		lat, erry := strconv.ParseFloat(strings.TrimSpace(row[iy]), 64)
		if errx != nil || erry != nil {
			log.Warnf("csv line(%d) bad coordinate", line)
			continue
		}
		pt := orb.Point{lon, lat}
		layer := int8(LayerOffset)
		tags := make([]tagEntry, 0, len(row))
		for i, c := range row {
			if i == ix || i == iy || i >= len(headers) || len(c) == 0 {
				continue
			}
			k := strings.TrimSpace(headers[i])
			if k == layerProperty {
				layer = ParseLayer(c)
				continue
			}
			tags = append(tags, tagEntry{k, c})
		}
		poi := &PointOfInterest{Layer: layer, Position: pt, Tags: sortedTags(tags, pool)}
		s.pois = append(s.pois, indexedPOI{poi: poi, seq: len(s.pois)})
		if first {
			s.bound = pt.Bound()
			first = false
		} else {
			s.bound = s.bound.Extend(pt)
		}
	}
	s.buildIndex()
	return s, nil
}

//GetGeomCol 获取空间字段
func GetGeomCol(headers []string, rows [][]string) (ix, iy int) {
	if len(rows) > sampleRows {
		rows = rows[:sampleRows]
	}
	getColumn := func(cols []string) int {
		for _, c := range cols {
			for i, n := range headers {
				if c == strings.ToLower(strings.TrimSpace(n)) {
					return i
				}
			}
		}
		return -1
	}
	detectColumn := func(min, max float64, skip int) int {
		if len(rows) == 0 {
			return -1
		}
		for i := range headers {
			if i == skip {
				continue
			}
			num := 0
			for _, row := range rows {
				if i >= len(row) {
					break
				}
				f, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
				if err != nil || f < min || f > max {
					break
				}
				num++
			}
			if num == len(rows) {
				return i
			}
		}
		return -1
	}

	ix = getColumn([]string{"x", "lon", "lng", "longitude", "经度"})
	if ix < 0 {
		ix = detectColumn(73, 135, -1)
	}
	iy = getColumn([]string{"y", "lat", "latitude", "纬度"})
	if iy < 0 {
		iy = detectColumn(18, 54, ix)
	}
	return
}
