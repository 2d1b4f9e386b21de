package domain

type Genre struct {
	Name        string `json:"Name" bson:"Name"`
	Description string `json:"Description" bson:"Description"`
}

type Director struct {
	Name  string `json:"Name" bson:"Name"`
	Bio   string `json:"Bio" bson:"Bio"`
	Birth string `json:"Birth,omitempty" bson:"Birth,omitempty"`
	Death string `json:"Death,omitempty" bson:"Death,omitempty"`
}

type Movie struct {
	ID          string   `json:"_id" bson:"_id"`
	Title       string   `json:"Title" bson:"Title" validate:"required"`
	Description string   `json:"Description" bson:"Description"`
	Genre       Genre    `json:"Genre" bson:"Genre"`
	Director    Director `json:"Director" bson:"Director"`
	ImagePath   string   `json:"ImagePath,omitempty" bson:"ImagePath,omitempty"`
	Featured    bool     `json:"Featured" bson:"Featured"`
}
