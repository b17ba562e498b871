package inventory

import (
	"fmt"
	"strings"

	"github.com/charlesren/ylog"
	"github.com/xuri/excelize/v2"
)

// 表格列：名称 地址 端口 用户名 密码 协议
const workbookColumns = 6

// LoadWorkbook 从 xlsx 读取设备清单，首列为“名称”或 name 的行视为表头
func LoadWorkbook(filename, sheet string, defaults DeviceDefaults) ([]Device, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filename, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			ylog.Errorf("inventory", "close file : %v with err: %v", filename, err)
		}
	}()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return devicesFromRows(rows, defaults)
}

func devicesFromRows(rows [][]string, defaults DeviceDefaults) ([]Device, error) {
	devices := make([]Device, 0, len(rows))
	seen := make(map[string]int)
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "名称" || strings.EqualFold(name, "name") {
			continue
		}
		for len(row) < workbookColumns {
			row = append(row, "")
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("row %d: device %s already defined in row %d", i+1, name, prev)
		}

		fields := deviceFields{host: row[1], port: row[2], username: row[3], password: row[4], protocol: row[5], source: SourceWorkbook}
		device, err := fields.build(name, defaults)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		seen[name] = i + 1
		devices = append(devices, device)
	}
	ylog.Debugf("inventory", "loaded %d devices from %d rows", len(devices), len(rows))
	return devices, nil
}
