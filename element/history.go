package element

// Quantity 标识一个被记录的物理量
type Quantity string

const (
	QDensity       Quantity = "density"
	QSpeed         Quantity = "speed"
	QSendingFlow   Quantity = "sendingFlow"
	QReceivingFlow Quantity = "receivingFlow"
	QInflow        Quantity = "inflow"
	QOutflow       Quantity = "outflow"
	QDemand        Quantity = "demand"
)

// Record 是某个时间步的一条记录
type Record struct {
	Step  int
	Value float64
}

// Retention 控制历史记录的保留策略
//   - Every: 只保留 step%Every==0 的记录，<=1 表示每步都记录
//   - Max: 每个物理量最多保留的记录条数，超出时丢弃最旧的记录，<=0 表示不限制
type Retention struct {
	Every int `json:"every" yaml:"every"`
	Max   int `json:"max" yaml:"max"`
}

func (r Retention) keep(step int) bool {
	return r.Every <= 1 || step%r.Every == 0
}

// Series 是单个物理量按时间步排序的记录序列
// 设置 max 后写满即作为环形缓冲区使用，head 指向最旧的记录
type Series struct {
	records []Record
	head    int
	max     int
}

func (s *Series) append(rec Record) {
	if s.max > 0 && len(s.records) == s.max {
		s.records[s.head] = rec
		s.head = (s.head + 1) % s.max
		return
	}
	s.records = append(s.records, rec)
}

// ordered 按时间步顺序返回记录副本
func (s *Series) ordered() []Record {
	result := make([]Record, 0, len(s.records))
	result = append(result, s.records[s.head:]...)
	return append(result, s.records[:s.head]...)
}

// History 是实体的按物理量划分的历史日志
// 物理量集合在构造时固定，运行期间只追加记录
type History struct {
	retention  Retention
	quantities []Quantity
	series     map[Quantity]*Series
}

func newHistory(retention Retention, quantities ...Quantity) *History {
	h := &History{
		retention:  retention,
		quantities: quantities,
		series:     make(map[Quantity]*Series, len(quantities)),
	}
	for _, q := range quantities {
		h.series[q] = &Series{
			records: make([]Record, 0, 16),
			max:     retention.Max,
		}
	}
	return h
}

// record 追加一条记录；force 为真时忽略采样间隔（用于初始状态）
func (h *History) record(q Quantity, step int, value float64, force bool) {
	s, ok := h.series[q]
	if !ok {
		return
	}
	if !force && !h.retention.keep(step) {
		return
	}
	s.append(Record{Step: step, Value: value})
}

// Quantities 返回该实体记录的全部物理量
func (h *History) Quantities() []Quantity {
	result := make([]Quantity, len(h.quantities))
	copy(result, h.quantities)
	return result
}

// Records 返回某个物理量的记录副本
func (h *History) Records(q Quantity) []Record {
	s, ok := h.series[q]
	if !ok {
		return nil
	}
	return s.ordered()
}

// Values 返回某个物理量的数值序列
func (h *History) Values(q Quantity) []float64 {
	s, ok := h.series[q]
	if !ok {
		return nil
	}
	records := s.ordered()
	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = rec.Value
	}
	return values
}

// Len 返回某个物理量当前保留的记录条数
func (h *History) Len(q Quantity) int {
	if s, ok := h.series[q]; ok {
		return len(s.records)
	}
	return 0
}
