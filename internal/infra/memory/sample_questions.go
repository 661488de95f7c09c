package memory

import "exodus-quiz-service/internal/domain"

// SampleQuestions is a small built-in bank about Exodus 1-20.
func SampleQuestions() map[domain.Difficulty][]domain.Question {
	return map[domain.Difficulty][]domain.Question{
		domain.Easy: {
			sample("谁带领以色列人出埃及？", 0, "出埃及记 3:10", "神差遣摩西去见法老，领以色列人出埃及。",
				"摩西", "亚伦", "约书亚", "迦勒"),
			sample("摩西出生后被母亲藏在什么里放在河边？", 0, "出埃及记 2:3", "他母亲取了一个蒲草箱，抹上石漆和石油，把孩子放在里头。",
				"蒲草箱", "木船", "陶罐", "羊皮袋"),
			sample("神在何处向摩西显现，火焰燃烧却没有烧毁？", 0, "出埃及记 3:2", "耶和华的使者从荆棘里火焰中向摩西显现。",
				"荆棘中", "云柱中", "井边", "法老宫中"),
			sample("神在西奈山颁布了几条诫命？", 1, "出埃及记 20:1-17", "十诫记载在出埃及记第二十章。",
				"七条", "十条", "十二条", "五条"),
			sample("以色列人出埃及时走干地穿过了哪片海？", 2, "出埃及记 14:21-22", "摩西向海伸杖，水便分开，以色列人下海中走干地。",
				"死海", "地中海", "红海", "加利利海"),
			sample("谁是摩西的哥哥，神让他替摩西向百姓说话？", 0, "出埃及记 4:14-16", "神说利未人亚伦是能言的，他要替摩西对百姓说话。",
				"亚伦", "约书亚", "户珥", "叶忒罗"),
		},
		domain.Medium: {
			sample("十灾中的第一灾是什么？", 0, "出埃及记 7:20", "摩西举杖击打河里的水，河里的水都变作血。",
				"水变为血", "青蛙", "虱子", "冰雹"),
			sample("摩西的岳父叫什么名字？", 3, "出埃及记 3:1", "摩西牧养他岳父米甸祭司叶忒罗的羊群。",
				"拉班", "以利", "巴兰", "叶忒罗"),
			sample("以色列人在旷野每天早晨收取的食物叫什么？", 1, "出埃及记 16:31", "这食物以色列家叫吗哪，样子像芫荽子，颜色是白的。",
				"无花果", "吗哪", "鹌鹑", "大麦饼"),
			sample("逾越节羊羔的血要涂在哪里？", 0, "出埃及记 12:7", "血要涂在吃羊羔的房屋左右的门框上和门楣上。",
				"门框和门楣上", "祭坛四角", "帐棚顶上", "衣襟上"),
			sample("神降临西奈山之前，吩咐百姓到第几天要预备好？", 2, "出埃及记 19:11", "到第三天要预备好，因为第三天耶和华要在众百姓眼前降临在西奈山上。",
				"第一天", "第七天", "第三天", "第四十天"),
			sample("与亚玛力人争战时，谁扶着摩西的手？", 0, "出埃及记 17:12", "亚伦和户珥扶着他的手，一个在这边，一个在那边。",
				"亚伦和户珥", "约书亚和迦勒", "拿答和亚比户", "叶忒罗和西坡拉"),
		},
		domain.Hard: {
			sample("神向摩西启示自己的名是什么？", 0, "出埃及记 3:14", "神对摩西说：我是自有永有的。",
				"我是自有永有的", "万军之耶和华", "全能的神", "以马内利"),
			sample("以色列人住在埃及共有多少年？", 1, "出埃及记 12:40", "以色列人住在埃及共有四百三十年。",
				"四百年", "四百三十年", "二百一十年", "四十年"),
			sample("在玛拉，摩西把什么丢在水里使苦水变甜？", 0, "出埃及记 15:25", "耶和华指示他一棵树，他丢在水里，水就变甜了。",
				"一棵树", "一块石头", "一把盐", "他的杖"),
			sample("以色列人在以琳看到多少股水泉和多少棵棕树？", 2, "出埃及记 15:27", "那里有十二股水泉，七十棵棕树。",
				"七股水泉、十二棵棕树", "十股水泉、四十棵棕树", "十二股水泉、七十棵棕树", "三股水泉、三十棵棕树"),
			sample("摩西的妻子叫什么名字？", 0, "出埃及记 2:21", "叶忒罗把他的女儿西坡拉给摩西为妻。",
				"西坡拉", "米利暗", "约基别", "以利沙巴"),
			sample("为给后代看，摩西吩咐把一俄梅珥吗哪存放在什么里面？", 3, "出埃及记 16:33", "拿一个罐子，装一满俄梅珥吗哪，存在耶和华面前。",
				"篮子", "皮袋", "铜盆", "罐子"),
		},
	}
}

func sample(text string, correct int, reference, explanation string, options ...string) domain.Question {
	return domain.Question{
		Text:               text,
		Options:            options,
		CorrectAnswerIndex: correct,
		Reference:          reference,
		Explanation:        explanation,
	}
}
