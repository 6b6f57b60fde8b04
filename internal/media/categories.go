package media

// Category is a browse shortcut on the home page
type Category struct {
	Name  string `json:"name"`
	Query string `json:"query"`
	Image string `json:"image"`
}

var categories = []Category{
	{Name: "Nature", Query: "nature", Image: "https://images.pexels.com/photos/414612/pexels-photo-414612.jpeg?auto=compress&cs=tinysrgb&w=600"},
	{Name: "People", Query: "people", Image: "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg?auto=compress&cs=tinysrgb&w=600"},
	{Name: "Technology", Query: "technology", Image: "https://images.pexels.com/photos/1714208/pexels-photo-1714208.jpeg?auto=compress&cs=tinysrgb&w=600"},
	{Name: "Travel", Query: "travel", Image: "https://images.pexels.com/photos/338515/pexels-photo-338515.jpeg?auto=compress&cs=tinysrgb&w=600"},
	{Name: "Animals", Query: "animals", Image: "https://images.pexels.com/photos/247502/pexels-photo-247502.jpeg?auto=compress&cs=tinysrgb&w=600"},
	{Name: "Food", Query: "food", Image: "https://images.pexels.com/photos/376464/pexels-photo-376464.jpeg?auto=compress&cs=tinysrgb&w=600"},
	{Name: "Sports", Query: "sports", Image: "https://images.pexels.com/photos/248547/pexels-photo-248547.jpeg?auto=compress&cs=tinysrgb&w=600"},
	{Name: "Abstract", Query: "abstract", Image: "https://images.pexels.com/photos/1025469/pexels-photo-1025469.jpeg?auto=compress&cs=tinysrgb&w=600"},
}

// Categories returns the fixed category list
func Categories() []Category {
	return append([]Category(nil), categories...)
}
