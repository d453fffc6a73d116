package domain

// Milestone is one rung on a reading or collection achievement ladder.
type Milestone struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	MinBooks      int    `json:"min_books"`
	NextMilestone int    `json:"next_milestone"`
}

// readerLadder ranks users by number of books read.
// Ordered ascending by MinBooks; ReaderStatus walks it from the top.
//
//nolint:gochecknoglobals // Static achievement table
var readerLadder = []Milestone{
	{Title: "Reader", Description: "Finish your first book", MinBooks: 0, NextMilestone: 1},
	{Title: "Novice Reader", Description: "The first book is a great start!", MinBooks: 1, NextMilestone: 10},
	{Title: "Young Bookworm", Description: "Ten books down already!", MinBooks: 10, NextMilestone: 20},
	{Title: "Avid Reader", Description: "Reading pulls you in, doesn't it?", MinBooks: 20, NextMilestone: 30},
	{Title: "Book Wanderer", Description: "You move confidently through literary worlds", MinBooks: 30, NextMilestone: 40},
	{Title: "Bibliophile", Description: "Books are your passion!", MinBooks: 40, NextMilestone: 50},
	{Title: "Book Gourmet", Description: "Fifty books is a serious result!", MinBooks: 50, NextMilestone: 60},
	{Title: "Seasoned Reader", Description: "Few plots surprise you anymore", MinBooks: 60, NextMilestone: 70},
	{Title: "Book Expert", Description: "Your knowledge is impressive", MinBooks: 70, NextMilestone: 80},
	{Title: "Book Sommelier", Description: "Books have opened much to you", MinBooks: 80, NextMilestone: 100},
	{Title: "Book Maestro", Description: "A hundred books is magnificent!", MinBooks: 100, NextMilestone: 101},
	{Title: "Grand Reader", Description: "You have reached the summit of readership!", MinBooks: 101, NextMilestone: 101},
}

// collectionLadder ranks users by total library size.
//
//nolint:gochecknoglobals // Static achievement table
var collectionLadder = []Milestone{
	{Title: "Newcomer", Description: "Add some books to your library", MinBooks: 0, NextMilestone: 1},
	{Title: "Collector", Description: "The first step is taken!", MinBooks: 1, NextMilestone: 10},
	{Title: "Gatherer", Description: "You already have a small stack of books", MinBooks: 10, NextMilestone: 20},
	{Title: "Enthusiast", Description: "The collection is growing", MinBooks: 20, NextMilestone: 40},
	{Title: "Devotee", Description: "The shelves are starting to fill", MinBooks: 40, NextMilestone: 60},
	{Title: "Curator", Description: "You know your way around books", MinBooks: 60, NextMilestone: 80},
	{Title: "Librarian", Description: "An impressive collection", MinBooks: 80, NextMilestone: 100},
	{Title: "Connoisseur", Description: "A hundred books is serious!", MinBooks: 100, NextMilestone: 125},
	{Title: "Archivist", Description: "Your library commands respect", MinBooks: 125, NextMilestone: 150},
	{Title: "Keeper", Description: "You have gathered a real treasure", MinBooks: 150, NextMilestone: 200},
	{Title: "Grand Collector", Description: "The scale of your library is striking!", MinBooks: 200, NextMilestone: 201},
	{Title: "Legend", Description: "Your collection is legendary!", MinBooks: 201, NextMilestone: 201},
}

// ReaderStatus returns the achievement rung for a count of read books.
func ReaderStatus(readCount int) Milestone {
	return ladderStatus(readerLadder, readCount)
}

// CollectionStatus returns the achievement rung for a total library size.
func CollectionStatus(totalCount int) Milestone {
	return ladderStatus(collectionLadder, totalCount)
}

func ladderStatus(ladder []Milestone, count int) Milestone {
	current := ladder[0]
	for _, m := range ladder {
		if count >= m.MinBooks {
			current = m
		}
	}
	return current
}

// Progress reports how far along [0,1] a count is toward the next milestone.
// A terminal milestone reports 1.
func (m Milestone) Progress(count int) float64 {
	if m.NextMilestone <= m.MinBooks {
		return 1
	}
	span := float64(m.NextMilestone - m.MinBooks)
	p := float64(count-m.MinBooks) / span
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
