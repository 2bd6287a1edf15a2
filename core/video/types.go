package video

// Class 首页分类
type Class struct {
	TypeID   string `json:"type_id"`
	TypeName string `json:"type_name"`
}

// FilterValue 筛选项
type FilterValue struct {
	N string `json:"n"`
	V string `json:"v"`
}

// Filter 分类下的筛选条件
type Filter struct {
	Key   string        `json:"key"`
	Name  string        `json:"name"`
	Init  string        `json:"init"`
	Value []FilterValue `json:"value"`
}

// HomeResult 首页数据
type HomeResult struct {
	Class   []Class             `json:"class"`
	Filters map[string][]Filter `json:"filters"`
}

// Vod 影片
type Vod struct {
	VodID       string `json:"vod_id"`
	VodName     string `json:"vod_name,omitempty"`
	VodPic      string `json:"vod_pic,omitempty"`
	VodRemarks  string `json:"vod_remarks"`
	VodYear     string `json:"vod_year,omitempty"`
	VodArea     string `json:"vod_area,omitempty"`
	VodActor    string `json:"vod_actor,omitempty"`
	VodPlayFrom string `json:"vod_play_from,omitempty"`
	VodPlayURL  string `json:"vod_play_url,omitempty"`
}

// ListResult 列表、搜索和详情共用的分页结构
type ListResult struct {
	Page      int   `json:"page,omitempty"`
	PageCount int   `json:"pagecount,omitempty"`
	Limit     int   `json:"limit,omitempty"`
	Total     int   `json:"total,omitempty"`
	List      []Vod `json:"list"`
}

// PlayResult 播放信息，parse 为 0 表示直链
type PlayResult struct {
	Parse int    `json:"parse"`
	URL   string `json:"url"`
}

// ProxyResult 代理返回的原始内容
type ProxyResult struct {
	Code        int
	ContentType string
	Content     []byte
}
