package database

import (
	"encoding/json"
	"fmt"
	"log"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// shouldMigrate decides whether AutoMigrate runs on this boot. Release mode
// skips migration unless forced via the --migrate flags.
func shouldMigrate(mode string, force bool) bool {
	return mode != "release" || force
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	db := cfg.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.DBName,
		db.Charset,
		db.ParseTime,
	)

	conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if !shouldMigrate(cfg.Server.Mode, cfg.ForceMigrate) {
		log.Println("Skipping database migration (release mode, no --migrate)")
		return conn, nil
	}

	err = conn.AutoMigrate(
		&model.User{},
		&model.PlacementQuestion{},
		&model.PlacementResult{},
		&model.VocabItem{},
		&model.VocabProgress{},
		&model.PracticeRecord{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedQuestionBank(conn)
	seedVocab(conn)

	return conn, nil
}

func rawJSON(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// seedQuestionBank inserts a starter bank so a fresh deployment can run the
// default placement product end to end.
func seedQuestionBank(db *gorm.DB) {
	var count int64
	db.Model(&model.PlacementQuestion{}).Count(&count)
	if count > 0 {
		return
	}

	questions := []model.PlacementQuestion{
		{
			Level:        "hsk1",
			QuestionType: "multiple_choice",
			Prompt:       "“谢谢”的意思是？",
			Options:      rawJSON([]string{"Thank you", "Goodbye", "Hello", "Sorry"}),
			AnswerKey:    rawJSON(0),
			Explanation:  "谢谢 (xiè xiè) 表示感谢。",
			Enabled:      true,
		},
		{
			Level:        "hsk1",
			QuestionType: "fill_blank",
			Prompt:       "用拼音写出“谢谢”的读音。",
			AnswerKey:    rawJSON("xiè xiè"),
			Enabled:      true,
		},
		{
			Level:        "hsk1",
			QuestionType: "multiple_choice",
			Prompt:       "下列哪些是问候语？（多选）",
			Options:      rawJSON([]string{"你好", "再见", "早上好", "对不起"}),
			AnswerKey:    rawJSON([]int{0, 2}),
			Enabled:      true,
		},
		{
			Level:        "hsk1",
			QuestionType: "sentence_order",
			Prompt:       "把词语排成正确的句子。",
			Options:      rawJSON([]string{"我", "是", "学生"}),
			AnswerKey:    rawJSON([]int{0, 1, 2}),
			Enabled:      true,
		},
		{
			Level:        "hsk1",
			QuestionType: "multiple_choice",
			Prompt:       "“水”的拼音是？",
			Options:      rawJSON([]string{"shuǐ", "huǒ", "shān", "mù"}),
			AnswerKey:    rawJSON(0),
			Enabled:      true,
		},
		{
			Level:        "hsk2",
			QuestionType: "multiple_choice",
			Prompt:       "“他昨天＿＿去北京了。”选择合适的词。",
			Options:      rawJSON([]string{"坐飞机", "喝水", "睡觉", "唱歌"}),
			AnswerKey:    rawJSON(0),
			Enabled:      true,
		},
		{
			Level:        "hsk2",
			QuestionType: "fill_blank",
			Prompt:       "“明天见”用拼音怎么写？",
			AnswerKey:    rawJSON("míng tiān jiàn"),
			Enabled:      true,
		},
		{
			Level:        "hsk3",
			QuestionType: "reading_comprehension",
			Prompt:       "小王每天早上七点起床，吃早饭以后坐地铁去公司。",
			SubQuestions: rawJSON([]model.SubQuestionRow{
				{Options: []string{"七点", "八点", "九点"}, AnswerKey: 0},
				{Options: []string{"坐地铁", "开车", "走路"}, AnswerKey: 0},
			}),
			Enabled: true,
		},
		{
			Level:        "hsk3",
			QuestionType: "sentence_order",
			Prompt:       "把词语排成正确的句子。",
			Options:      rawJSON([]string{"因为", "下雨", "我们", "不去", "公园"}),
			AnswerKey:    rawJSON([]int{0, 1, 2, 3, 4}),
			Enabled:      true,
		},
	}

	for i := range questions {
		db.Create(&questions[i])
	}
	log.Printf("Seeded %d placement questions", len(questions))
}

// seedVocab inserts starter vocabulary with attached mastery quizzes.
func seedVocab(db *gorm.DB) {
	var count int64
	db.Model(&model.VocabItem{}).Count(&count)
	if count > 0 {
		return
	}

	items := []struct {
		item model.VocabItem
		quiz []model.PlacementQuestion
	}{
		{
			item: model.VocabItem{Word: "谢谢", Pinyin: "xiè xiè", Translation: "thank you", Level: "hsk1", Enabled: true},
			quiz: []model.PlacementQuestion{
				{
					Level:        "hsk1",
					QuestionType: "multiple_choice",
					Prompt:       "“谢谢”的英文意思是？",
					Options:      rawJSON([]string{"Thank you", "Please", "Excuse me"}),
					AnswerKey:    rawJSON(0),
					Enabled:      true,
				},
				{
					Level:        "hsk1",
					QuestionType: "fill_blank",
					Prompt:       "写出“谢谢”的拼音。",
					AnswerKey:    rawJSON("xiè xiè"),
					Enabled:      true,
				},
			},
		},
		{
			item: model.VocabItem{Word: "再见", Pinyin: "zài jiàn", Translation: "goodbye", Level: "hsk1", Enabled: true},
			quiz: []model.PlacementQuestion{
				{
					Level:        "hsk1",
					QuestionType: "multiple_choice",
					Prompt:       "道别时应该说什么？",
					Options:      rawJSON([]string{"再见", "你好", "谢谢"}),
					AnswerKey:    rawJSON(0),
					Enabled:      true,
				},
			},
		},
	}

	for i := range items {
		if err := db.Create(&items[i].item).Error; err != nil {
			continue
		}
		id := items[i].item.ID
		for j := range items[i].quiz {
			items[i].quiz[j].VocabItemID = &id
			db.Create(&items[i].quiz[j])
		}
	}
	log.Printf("Seeded %d vocab items", len(items))
}
